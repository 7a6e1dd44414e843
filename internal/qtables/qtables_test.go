package qtables

import (
	"testing"

	"github.com/zoravur/pgmock/internal/catalog"
)

func mkTable(schema, rel string, cols ...string) catalog.Table {
	return catalog.NewTable(schema, rel, cols)
}

func TestAddUnaliasedThenResolveUnqualified(t *testing.T) {
	qt := New()
	users := mkTable("public", "users", "id", "name")
	if _, err := qt.Add(users, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	src, err := qt.GetColumnSource("name", "", "")
	if err != nil {
		t.Fatalf("GetColumnSource: %v", err)
	}
	if src != "public.users" {
		t.Fatalf("expected source id public.users, got %s", src)
	}
}

func TestDuplicateUnaliasedRelationIsRejected(t *testing.T) {
	qt := New()
	users := mkTable("public", "users", "id")
	if _, err := qt.Add(users, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := qt.Add(users, ""); err == nil {
		t.Fatal("expected a duplicate-alias error adding the same relation twice")
	}
}

func TestDuplicateAliasIsRejected(t *testing.T) {
	qt := New()
	users := mkTable("public", "users", "id")
	orders := mkTable("public", "orders", "id")
	if _, err := qt.Add(users, "t"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := qt.Add(orders, "t"); err == nil {
		t.Fatal("expected a duplicate-alias error for a reused alias")
	}
}

func TestAmbiguousUnqualifiedColumn(t *testing.T) {
	qt := New()
	a := mkTable("public", "a", "id", "name")
	b := mkTable("public", "b", "id", "label")
	if _, err := qt.Add(a, "a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := qt.Add(b, "b"); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := qt.GetColumnSource("id", "", ""); err == nil {
		t.Fatal("expected an ambiguous-column error for a column present on both sides")
	}
	if _, err := qt.GetColumnSource("name", "", ""); err != nil {
		t.Fatalf("unambiguous column should resolve: %v", err)
	}
}

func TestQualifiedColumnRequiresKnownAlias(t *testing.T) {
	qt := New()
	a := mkTable("public", "a", "id")
	if _, err := qt.Add(a, "x"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := qt.GetColumnSource("id", "x", ""); err != nil {
		t.Fatalf("qualified lookup by known alias should succeed: %v", err)
	}
	if _, err := qt.GetColumnSource("id", "nope", ""); err == nil {
		t.Fatal("expected an undefined-table error for an unknown qualifier")
	}
}

func TestMergeCombinesBothSidesAndDetectsCollision(t *testing.T) {
	left := New()
	a := mkTable("public", "a", "id")
	if _, err := left.Add(a, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	right := New()
	b := mkTable("public", "b", "id")
	if _, err := right.Add(b, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}

	merged, err := left.Merge(right)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if _, err := merged.GetColumnSource("id", "a", ""); err != nil {
		t.Fatalf("merged registry should resolve left side: %v", err)
	}
	if _, err := merged.GetColumnSource("id", "b", ""); err != nil {
		t.Fatalf("merged registry should resolve right side: %v", err)
	}

	dup := New()
	if _, err := dup.Add(a, ""); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := left.Merge(dup); err == nil {
		t.Fatal("expected a collision merging a source already present on the left")
	}
}

func TestNullRowCoversEveryRegisteredSource(t *testing.T) {
	qt := New()
	a := mkTable("public", "a", "id", "name")
	if _, err := qt.Add(a, "a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	nullRow := qt.NullRow()
	row, ok := nullRow["a"]
	if !ok {
		t.Fatal("NullRow should include the registered source")
	}
	if !row.Get("name").IsNull() {
		t.Fatal("NullRow's row should report every column NULL")
	}
}
