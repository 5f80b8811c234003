package pipeline

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recognition-pipeline/internal/model"
)

func ds(header []string, records ...model.Record) model.Dataset {
	if records == nil {
		records = []model.Record{}
	}
	return model.Dataset{Header: header, Records: records}
}

func TestMergeAwardsDeduplicates(t *testing.T) {
	header := []string{"award_id", "message"}
	existing := ds(header, model.Record{"award_id": "AW1", "message": "original"})
	incoming := ds(header,
		model.Record{"award_id": "AW1", "message": "changed"},
		model.Record{"award_id": "AW2", "message": "new"},
	)

	merged, stats, err := MergeDetailed(model.Awards, existing, incoming)
	require.NoError(t, err)

	want := ds(header,
		model.Record{"award_id": "AW1", "message": "original"},
		model.Record{"award_id": "AW2", "message": "new"},
	)
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, MergeStats{Existing: 1, Incoming: 2, Merged: 2, Appended: 1, Duplicates: 1}, stats)
}

func TestMergeAwardsKeylessAlwaysAppended(t *testing.T) {
	header := []string{"award_id", "message"}
	existing := ds(header, model.Record{"award_id": "", "message": "a"})
	incoming := ds(header,
		model.Record{"award_id": "", "message": "a"},
		model.Record{"message": "b"},
	)

	merged, err := Merge(model.Awards, existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Len())
}

func TestMergeAwardsFallsBackToID(t *testing.T) {
	header := []string{"id", "message"}
	existing := ds(header, model.Record{"id": "7", "message": "x"})
	incoming := ds(header, model.Record{"id": "7", "message": "y"})

	merged, err := Merge(model.Awards, existing, incoming)
	require.NoError(t, err)
	require.Equal(t, 1, merged.Len())
	assert.Equal(t, "x", merged.Records[0]["message"])
}

func TestMergeEmployeesUpserts(t *testing.T) {
	header := []string{"employee_id", "title"}
	existing := ds(header, model.Record{"employee_id": "E1", "title": "Dev"})
	incoming := ds(header,
		model.Record{"employee_id": "E1", "title": "Senior Dev"},
		model.Record{"employee_id": "E2", "title": "PM"},
	)

	merged, stats, err := MergeDetailed(model.Employees, existing, incoming)
	require.NoError(t, err)

	want := ds(header,
		model.Record{"employee_id": "E1", "title": "Senior Dev"},
		model.Record{"employee_id": "E2", "title": "PM"},
	)
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, stats.Updated)
	assert.Equal(t, 1, stats.Appended)
}

func TestMergeUpsertKeepsPositionAndIgnoresKeyless(t *testing.T) {
	header := []string{"employee_id", "name"}
	existing := ds(header,
		model.Record{"employee_id": "E1", "name": "Ann"},
		model.Record{"employee_id": "", "name": "orphan"},
		model.Record{"employee_id": "E2", "name": "Bo"},
	)
	incoming := ds(header,
		model.Record{"employee_id": "E2", "name": "Bob"},
		model.Record{"employee_id": "", "name": "ghost"},
		model.Record{"employee_id": "E3", "name": "Cy"},
		model.Record{"employee_id": "E3", "name": "Cyd"},
	)

	merged, stats, err := MergeDetailed(model.Employees, existing, incoming)
	require.NoError(t, err)

	want := ds(header,
		model.Record{"employee_id": "E1", "name": "Ann"},
		model.Record{"employee_id": "", "name": "orphan"},
		model.Record{"employee_id": "E2", "name": "Bob"},
		model.Record{"employee_id": "E3", "name": "Cyd"},
	)
	if diff := cmp.Diff(want, merged); diff != "" {
		t.Fatalf("merged mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, stats.IgnoredKeyless)
	assert.Equal(t, 2, stats.Updated)
	assert.Equal(t, 1, stats.Appended)
}

func TestMergeDepartmentKeyPrecedence(t *testing.T) {
	header := []string{"dept_id", "id", "department_id", "name"}
	existing := ds(header, model.Record{"dept_id": "D1", "id": "x", "department_id": "", "name": "Eng"})
	incoming := ds(header,
		// same dept_id, different id: dept_id wins
		model.Record{"dept_id": "D1", "id": "y", "department_id": "", "name": "Engineering"},
		// only department_id set
		model.Record{"dept_id": "", "id": "", "department_id": "D9", "name": "Ops"},
	)

	merged, err := Merge(model.Departments, existing, incoming)
	require.NoError(t, err)
	require.Equal(t, 2, merged.Len())
	assert.Equal(t, "Engineering", merged.Records[0]["name"])
	assert.Equal(t, "Ops", merged.Records[1]["name"])
}

func TestMergeHeaderStability(t *testing.T) {
	existing := ds([]string{"employee_id", "name", "title"},
		model.Record{"employee_id": "E1", "name": "Ann", "title": "Dev"})
	incoming := ds([]string{"employee_id", "name", "badge"},
		model.Record{"employee_id": "E2", "name": "Bo", "badge": "gold"})

	merged, err := Merge(model.Employees, existing, incoming)
	require.NoError(t, err)

	assert.Equal(t, []string{"employee_id", "name", "title"}, merged.Header)
	assert.Equal(t, model.Record{"employee_id": "E2", "name": "Bo", "title": ""}, merged.Records[1])
}

func TestMergeEmptySides(t *testing.T) {
	header := []string{"award_id"}
	incoming := ds(header, model.Record{"award_id": "AW1"})

	merged, err := Merge(model.Awards, model.Dataset{}, incoming)
	require.NoError(t, err)
	assert.Equal(t, incoming, merged)

	merged, err = Merge(model.Awards, incoming, ds(header))
	require.NoError(t, err)
	assert.Equal(t, incoming, merged)
}

func TestMergeIsIdempotent(t *testing.T) {
	for _, rt := range model.RecordTypes {
		t.Run(string(rt), func(t *testing.T) {
			header := []string{"award_id", "employee_id", "dept_id", "v"}
			existing := ds(header, model.Record{"award_id": "1", "employee_id": "1", "dept_id": "1", "v": "a"})
			incoming := ds(header,
				model.Record{"award_id": "1", "employee_id": "1", "dept_id": "1", "v": "b"},
				model.Record{"award_id": "2", "employee_id": "2", "dept_id": "2", "v": "c"},
			)

			once, err := Merge(rt, existing, incoming)
			require.NoError(t, err)
			twice, err := Merge(rt, once, incoming)
			require.NoError(t, err)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Fatalf("second merge changed the dataset (-once +twice):\n%s", diff)
			}
		})
	}
}

func TestMergeDoesNotMutateInputs(t *testing.T) {
	header := []string{"employee_id", "title"}
	existing := ds(header, model.Record{"employee_id": "E1", "title": "Dev"})
	incoming := ds(header, model.Record{"employee_id": "E1", "title": "Lead"})
	before := existing.Clone()

	_, err := Merge(model.Employees, existing, incoming)
	require.NoError(t, err)
	assert.Equal(t, before, existing)
}

func TestMergeUnknownRecordType(t *testing.T) {
	_, err := Merge(model.RecordType("invoices"), model.Dataset{}, model.Dataset{})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "record_type", cfgErr.Field)
	assert.Equal(t, "invoices", cfgErr.Value)

	_, err = IdentityKeys("invoices")
	assert.Error(t, err)
}

func TestIdentityKeys(t *testing.T) {
	keys, err := IdentityKeys(model.Departments)
	require.NoError(t, err)
	assert.Equal(t, []string{"dept_id", "id", "department_id"}, keys)
}
