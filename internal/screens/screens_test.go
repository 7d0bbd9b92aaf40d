package screens

import (
	"context"
	"testing"

	"github.com/five82/backer/internal/console"
	"github.com/five82/backer/internal/platform"
)

type call struct {
	method   string
	resource platform.Resource
	id       string
	action   string
	body     any
	ids      []string
}

type recordingMutator struct {
	calls []call
}

func (m *recordingMutator) Action(_ context.Context, r platform.Resource, id, action string, body any) error {
	m.calls = append(m.calls, call{method: "POST", resource: r, id: id, action: action, body: body})
	return nil
}

func (m *recordingMutator) Patch(_ context.Context, r platform.Resource, id string, body any) error {
	m.calls = append(m.calls, call{method: "PATCH", resource: r, id: id, body: body})
	return nil
}

func (m *recordingMutator) Delete(_ context.Context, r platform.Resource, id string) error {
	m.calls = append(m.calls, call{method: "DELETE", resource: r, id: id})
	return nil
}

func (m *recordingMutator) Bulk(_ context.Context, r platform.Resource, action string, ids []string) (platform.BulkResult, error) {
	m.calls = append(m.calls, call{method: "BULK", resource: r, action: action, ids: ids})
	return platform.BulkResult{Updated: len(ids)}, nil
}

func TestAll_ScreenShapes(t *testing.T) {
	all := All()
	if len(all) != 6 {
		t.Fatalf("len(All()) = %d, want 6", len(all))
	}
	seen := map[string]bool{}
	for _, s := range all {
		if seen[s.ID] {
			t.Fatalf("duplicate screen id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Resource == "" || len(s.Columns) == 0 {
			t.Fatalf("screen %q missing resource or columns", s.ID)
		}
		want := console.DefaultPageSize
		if s.ID == ActionLogID {
			want = console.ActionLogSize
		}
		if s.PageSize != want {
			t.Fatalf("screen %q PageSize = %d, want %d", s.ID, s.PageSize, want)
		}
		keys := map[string]bool{}
		for _, a := range s.Actions {
			if keys[a.Key] {
				t.Fatalf("screen %q binds %q twice", s.ID, a.Key)
			}
			keys[a.Key] = true
		}
		for _, b := range s.Bulk {
			if keys[b.Key] {
				t.Fatalf("screen %q binds %q twice", s.ID, b.Key)
			}
			keys[b.Key] = true
		}
	}

	log, ok := ByID(ActionLogID)
	if !ok || !log.ReadOnly || len(log.Actions) != 0 {
		t.Fatalf("action log = %+v, want read-only without actions", log)
	}
	if _, ok := ByID("nope"); ok {
		t.Fatalf("ByID(nope) returned ok")
	}
}

func TestDefaults_DeclareEveryFilterUnset(t *testing.T) {
	s, _ := ByID(CampaignsID)
	f := s.Defaults()
	if got := len(f.Keys()); got != len(s.Filters) {
		t.Fatalf("default keys = %d, want %d", got, len(s.Filters))
	}
	if len(f.Query()) != 0 {
		t.Fatalf("defaults should send no filters, got %v", f.Query())
	}
	opts := s.Options(nil, nil)
	if opts.Resource != platform.Campaigns || opts.PageSize != 20 {
		t.Fatalf("Options = %+v", opts)
	}
}

func TestCampaignFeature_FollowsCurrentState(t *testing.T) {
	s, _ := ByID(CampaignsID)
	a, ok := s.ActionForKey("f")
	if !ok {
		t.Fatalf("campaign feature action not bound to f")
	}
	m := &recordingMutator{}

	off := platform.Item{ID: "7", Fields: map[string]any{"featured": false, "title": "Solar Roofs"}}
	cmd := s.Command(a, off, m)
	if cmd.Kind != "feature" || cmd.ItemID != "7" || cmd.Remove {
		t.Fatalf("command = %+v", cmd)
	}
	if !cmd.Apply(off).Bool("featured") {
		t.Fatalf("Apply did not flip featured on")
	}
	if err := cmd.Remote(context.Background(), off); err != nil {
		t.Fatalf("Remote returned error: %v", err)
	}
	if got := a.ConfirmPrompt(off); got != `Feature "Solar Roofs"?` {
		t.Fatalf("prompt = %q", got)
	}

	on := off.With("featured", true)
	if err := s.Command(a, on, m).Remote(context.Background(), on); err != nil {
		t.Fatalf("Remote returned error: %v", err)
	}
	if len(m.calls) != 2 || m.calls[0].action != "feature" || m.calls[1].action != "unfeature" {
		t.Fatalf("calls = %+v, want feature then unfeature", m.calls)
	}
}

func TestCampaignFeature_UsesRowAtExecuteTime(t *testing.T) {
	s, _ := ByID(CampaignsID)
	a, _ := s.ActionForKey("f")
	m := &recordingMutator{}

	// Confirmed while unfeatured; a refresh then shows it featured.
	stale := platform.Item{ID: "7", Fields: map[string]any{"featured": false}}
	current := stale.With("featured", true)
	cmd := s.Command(a, stale, m)
	if cmd.Apply(current).Bool("featured") {
		t.Fatalf("Apply on the refreshed row should unfeature")
	}
	if err := cmd.Remote(context.Background(), current); err != nil {
		t.Fatalf("Remote returned error: %v", err)
	}
	if len(m.calls) != 1 || m.calls[0].action != "unfeature" {
		t.Fatalf("calls = %+v, want unfeature to match the local flip", m.calls)
	}
}

func TestUserRoleChange_PatchesNextRole(t *testing.T) {
	s, _ := ByID(UsersID)
	a, _ := s.ActionForKey("r")
	m := &recordingMutator{}
	item := platform.Item{ID: "4", Fields: map[string]any{"role": "admin", "username": "kim"}}

	cmd := s.Command(a, item, m)
	if got := cmd.Apply(item).String("role"); got != "donor" {
		t.Fatalf("role after cycle = %q, want donor", got)
	}
	if err := cmd.Remote(context.Background(), item); err != nil {
		t.Fatalf("Remote returned error: %v", err)
	}
	body, _ := m.calls[0].body.(map[string]any)
	if m.calls[0].method != "PATCH" || body["role"] != "donor" {
		t.Fatalf("call = %+v, want PATCH role=donor", m.calls[0])
	}
	if NextRole("unknown") != "donor" || NextRole("donor") != "volunteer" {
		t.Fatalf("NextRole cycle broken")
	}
}

func TestOrganizationVerify_Precondition(t *testing.T) {
	s, _ := ByID(OrganizationsID)
	a, _ := s.ActionForKey("v")
	verified := platform.Item{ID: "3", Fields: map[string]any{"is_verified": true}}
	if a.Precondition(verified) {
		t.Fatalf("verify precondition accepted an already verified organization")
	}
	pending := verified.With("is_verified", false)
	got := a.Apply(pending)
	if !got.Bool("is_verified") || got.String("status") != "approved" {
		t.Fatalf("Apply = %+v", got.Fields)
	}
}

func TestDeleteAndBulk(t *testing.T) {
	s, _ := ByID(CategoriesID)
	del, _ := s.ActionForKey("D")
	m := &recordingMutator{}
	cmd := s.Command(del, platform.Item{ID: "5"}, m)
	if !cmd.Remove || cmd.Reconcile != console.ReconcileBySnapshot {
		t.Fatalf("delete command = %+v, want Remove with snapshot reconcile", cmd)
	}
	if err := cmd.Remote(context.Background(), platform.Item{ID: "5"}); err != nil {
		t.Fatalf("Remote returned error: %v", err)
	}

	orgs, _ := ByID(OrganizationsID)
	spec, ok := orgs.BulkForKey("V")
	if !ok {
		t.Fatalf("bulk verify not bound")
	}
	bulk := orgs.BulkAction(spec, m)
	res, err := bulk.Remote(context.Background(), []string{"1", "2", "3"})
	if err != nil || res.Updated != 3 {
		t.Fatalf("bulk Remote = %+v, %v", res, err)
	}
	last := m.calls[len(m.calls)-1]
	if last.method != "BULK" || last.action != "bulk_verify" || last.resource != platform.Organizations {
		t.Fatalf("bulk call = %+v", last)
	}
	if m.calls[0].method != "DELETE" || m.calls[0].resource != platform.Categories {
		t.Fatalf("delete call = %+v", m.calls[0])
	}
}

func TestNextOption(t *testing.T) {
	opts := []string{"a", "b"}
	tests := []struct {
		in   string
		want string
	}{
		{"", "a"},
		{"a", "b"},
		{"b", ""},
		{"zzz", ""},
	}
	for _, tt := range tests {
		if got := NextOption(opts, tt.in); got != tt.want {
			t.Fatalf("NextOption(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := NextOption(nil, "x"); got != "x" {
		t.Fatalf("NextOption(nil) = %q, want unchanged", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName(platform.Item{ID: "9"}); got != "#9" {
		t.Fatalf("DisplayName = %q, want #9", got)
	}
	if got := DisplayName(platform.Item{ID: "9", Fields: map[string]any{"name": "Acme"}}); got != `"Acme"` {
		t.Fatalf("DisplayName = %q", got)
	}
}
