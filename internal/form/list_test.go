package form_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/msomdec/solifound/internal/domain"
	"github.com/msomdec/solifound/internal/form"
)

func ids(l form.List[domain.WorkExperience]) []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.ID
	}
	return out
}

func sampleList() form.List[domain.WorkExperience] {
	return form.List[domain.WorkExperience]{
		{ID: "a", Empresa: "Acme"},
		{ID: "b", Empresa: "Globex"},
		{ID: "c", Empresa: "Initech"},
	}
}

func TestList_ApplyCreatePrepends(t *testing.T) {
	l := sampleList()
	got := l.Apply(form.Patch[domain.WorkExperience]{Op: form.OpCreate, Record: domain.WorkExperience{ID: "d"}})

	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if len(l) != 3 {
		t.Fatalf("receiver modified: %v", ids(l))
	}
}

func TestList_ApplyUpdateReplacesByID(t *testing.T) {
	l := sampleList()
	updated := domain.WorkExperience{ID: "b", Empresa: "Globex Corp", IsCurrentJob: true}

	got := l.Apply(form.Patch[domain.WorkExperience]{Op: form.OpUpdate, Record: updated})

	want := form.List[domain.WorkExperience]{l[0], updated, l[2]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if l[1].Empresa != "Globex" {
		t.Fatal("receiver modified")
	}
}

func TestList_ApplyDeleteRemovesByID(t *testing.T) {
	got := sampleList().Apply(form.Patch[domain.WorkExperience]{Op: form.OpDelete, ID: "a"})

	if diff := cmp.Diff([]string{"b", "c"}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestList_ApplyUnknownIDKeepsMembership(t *testing.T) {
	l := sampleList()
	for _, p := range []form.Patch[domain.WorkExperience]{
		{Op: form.OpUpdate, Record: domain.WorkExperience{ID: "zz"}},
		{Op: form.OpDelete, ID: "zz"},
	} {
		if diff := cmp.Diff(ids(l), ids(l.Apply(p))); diff != "" {
			t.Fatalf("%s changed membership:\n%s", p.Op, diff)
		}
	}
}

func TestToggleSelection(t *testing.T) {
	if got := form.ToggleSelection("", "u1"); got != "u1" {
		t.Fatalf("open: got %q", got)
	}
	if got := form.ToggleSelection("u1", "u1"); got != "" {
		t.Fatalf("collapse: got %q", got)
	}
	if got := form.ToggleSelection("u1", "u2"); got != "u2" {
		t.Fatalf("switch: got %q", got)
	}
}

func TestClean(t *testing.T) {
	if got := form.Clean("  <b>Ingeniería</b> & Co <script>x</script> "); got != "Ingeniería & Co" {
		t.Fatalf("Clean: got %q", got)
	}
}
