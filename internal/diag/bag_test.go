package diag

import (
	"testing"

	"knox/internal/source"
)

func TestBagSortIsDeterministic(t *testing.T) {
	bag := NewBag(0)
	r := BagReporter{Bag: bag}
	r.Report(SemaTypeMismatch, SevError, source.Span{File: 1, Start: 4, End: 5}, "b", nil, nil)
	r.Report(LexUnknownChar, SevError, source.Span{File: 0, Start: 9, End: 10}, "a", nil, nil)
	r.Report(SemaUnknownName, SevWarning, source.Span{File: 1, Start: 4, End: 5}, "c", nil, nil)
	r.Report(SemaArgCount, SevError, source.Span{File: 1, Start: 4, End: 5}, "d", nil, nil)
	bag.Sort()

	got := make([]string, 0, bag.Len())
	for _, d := range bag.Items() {
		got = append(got, d.Message)
	}
	want := []string{"a", "b", "d", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestBagLimitAndErrors(t *testing.T) {
	bag := NewBag(2)
	if !bag.Add(New(SevWarning, UnknownCode, source.Span{}, "w")) {
		t.Fatal("first add rejected")
	}
	if bag.HasErrors() {
		t.Fatal("warning counted as error")
	}
	bag.Add(NewError(SemaNoMain, source.Span{}, "e"))
	if bag.Add(NewError(SemaNoMain, source.Span{}, "dropped")) {
		t.Fatal("limit not enforced")
	}
	if !bag.HasErrors() || bag.ErrorCount() != 1 {
		t.Fatalf("HasErrors=%v ErrorCount=%d", bag.HasErrors(), bag.ErrorCount())
	}
}

func TestDedup(t *testing.T) {
	bag := NewBag(0)
	rep := NewDedupReporter(BagReporter{Bag: bag})
	sp := source.Span{File: 0, Start: 1, End: 2}
	rep.Report(SemaUnknownName, SevError, sp, "unknown name x", nil, nil)
	rep.Report(SemaUnknownName, SevError, sp, "unknown name x", nil, nil)
	rep.Report(SemaUnknownName, SevError, sp, "unknown name y", nil, nil)
	if bag.Len() != 2 {
		t.Fatalf("Len = %d, want 2", bag.Len())
	}
}

func TestCodeID(t *testing.T) {
	cases := map[Code]string{
		LexUnterminatedString:   "LEX1002",
		SynExpectSemicolon:      "SYN2003",
		DesugarAccessorConflict: "DSG2501",
		ResolveModuleNotFound:   "RES3001",
		VisNotExported:          "VIS3101",
		SemaTypeMismatch:        "SEM3203",
	}
	for code, want := range cases {
		if got := code.ID(); got != want {
			t.Errorf("%d.ID() = %s, want %s", code, got, want)
		}
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(0)
	b := ReportError(BagReporter{Bag: bag}, SynExpectSemicolon, source.Span{}, "expected ';'").
		WithNote(source.Span{Start: 3, End: 4}, "statement starts here").
		WithFix("insert ';'", FixEdit{NewText: ";"})
	b.Emit()
	b.Emit()
	if bag.Len() != 1 {
		t.Fatalf("Len = %d", bag.Len())
	}
	d := bag.Items()[0]
	if len(d.Notes) != 1 || len(d.Fixes) != 1 {
		t.Fatalf("notes=%d fixes=%d", len(d.Notes), len(d.Fixes))
	}
}
