package ledger

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExport(t *testing.T) {
	m, _ := newTestManager()
	newJulyPeriod(t, m)
	m.AddExpense("500", CategoryFood, "lunch", "2024-07-05", false)

	blob, err := m.Export()
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(blob, &doc); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	for _, key := range []string{"activeBudgetPeriod", "archive", "schemaVersion", "exportedAt"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("export missing %q", key)
		}
	}
}

func TestImport(t *testing.T) {
	t.Run("round trip through export", func(t *testing.T) {
		src, _ := newTestManager()
		newJulyPeriod(t, src)
		src.AddExpense("40", CategoryLRT, "fare", "2024-07-05", true)
		blob, err := src.Export()
		if err != nil {
			t.Fatalf("Export: %v", err)
		}

		dst, _ := newTestManager()
		if err := dst.Import(blob); err != nil {
			t.Fatalf("Import: %v", err)
		}
		p := dst.ActivePeriod()
		if p == nil || p.Name != "July" {
			t.Fatalf("imported period = %+v", p)
		}
		if stat := p.Categories[CategoryLRT]; stat.Spent != 2000 || stat.Saved != 2000 {
			t.Fatalf("lrt stat after import = %+v", stat)
		}
		checkStatsInvariant(t, dst)
	})

	t.Run("archive-only payload accepted", func(t *testing.T) {
		m, _ := newTestManager()
		if err := m.Import([]byte(`{"archive": []}`)); err != nil {
			t.Fatalf("Import: %v", err)
		}
	})

	t.Run("rejections leave state untouched", func(t *testing.T) {
		m, _ := newTestManager()
		newJulyPeriod(t, m)
		before, err := m.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}

		cases := []struct {
			name string
			blob string
		}{
			{"empty object", `{}`},
			{"unrelated keys", `{"foo": 1}`},
			{"not json", `not json at all`},
			{"array payload", `[1,2,3]`},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if err := m.Import([]byte(tc.blob)); !errors.Is(err, ErrBadImport) {
					t.Fatalf("err = %v, want ErrBadImport", err)
				}
			})
		}

		after, err := m.Snapshot()
		if err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
		if string(before) != string(after) {
			t.Fatal("failed imports mutated the state")
		}
	})
}
