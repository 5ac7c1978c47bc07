package flow

import (
	"strings"
	"testing"

	"github.com/m3rciful/joinbot/core/store"
)

const testReviewGroup int64 = -100500

func testMachine() *Machine {
	return &Machine{ChannelLink: "https://t.me/community", ReviewGroupID: testReviewGroup}
}

// advance applies an outcome to the record the way the dispatcher would.
func advance(app store.Application, o Outcome) store.Application {
	o.Writes.ApplyTo(&app)
	if o.ChangeState {
		app.State = o.State
	}
	return app
}

func TestStartRequiresChannelMembership(t *testing.T) {
	m := testMachine()
	o := m.Start(store.Application{ChatID: 1}, false)

	if o.ChangeState {
		t.Error("non-member /start must not change state")
	}
	if len(o.Out) != 1 || len(o.Out[0].Keyboard) == 0 {
		t.Fatalf("expected a join prompt with a link button, got %+v", o.Out)
	}
	if o.Out[0].Keyboard[0][0].URL != m.ChannelLink {
		t.Errorf("join button URL = %q", o.Out[0].Keyboard[0][0].URL)
	}
}

func TestStartReturningApplicantGetsMenu(t *testing.T) {
	m := testMachine()
	o := m.Start(store.Application{ChatID: 1, Name: "Jane"}, true)
	if o.ChangeState {
		t.Error("returning applicant must not be re-onboarded")
	}
	if len(o.Out) != 1 || len(o.Out[0].Keyboard) != 3 {
		t.Fatalf("expected main menu, got %+v", o.Out)
	}
}

func TestOnboardingLinkedInPath(t *testing.T) {
	m := testMachine()
	app := store.Application{ChatID: 42, Status: store.StatusPending}

	o := m.Start(app, true)
	if !o.ChangeState || o.State.Step != store.StepName {
		t.Fatalf("expected AWAIT_NAME, got %+v", o)
	}
	app = advance(app, o)

	answers := []struct {
		text string
		next store.Step
	}{
		{"Jane Doe", store.StepCompany},
		{"Acme", store.StepExpertise},
		{"Distributed systems", store.StepEmail},
		{"jane@acme.test", store.StepMotivation},
		{"I want to learn", store.StepVerification},
	}
	for _, a := range answers {
		o = m.Text(app, a.text)
		if !o.ChangeState || o.State.Step != a.next {
			t.Fatalf("after %q expected step %s, got %+v", a.text, a.next, o.State)
		}
		app = advance(app, o)
	}

	o = m.Choice(app, ActionVerifyLinkedIn)
	if o.State.Step != store.StepLinkedIn {
		t.Fatalf("expected AWAIT_LINKEDIN, got %+v", o.State)
	}
	app = advance(app, o)

	// Not a linkedin.com host: state unchanged, nothing written.
	o = m.Text(app, "https://example.com/in/jane")
	if o.ChangeState || o.Writes != (store.Writes{}) {
		t.Fatal("invalid linkedin URL must not advance or write")
	}

	o = m.Text(app, "https://linkedin.com/in/jane")
	if !o.ChangeState || o.State.Kind != store.KindCompleted {
		t.Fatalf("expected COMPLETED, got %+v", o.State)
	}
	app = advance(app, o)

	if app.VerifyMethod != store.MethodLinkedIn || app.VerifyValue != "https://linkedin.com/in/jane" {
		t.Errorf("verification not recorded: %+v", app)
	}
	if app.Status != store.StatusPending {
		t.Errorf("status = %q, want pending", app.Status)
	}

	var groupNotices int
	for _, out := range o.Out {
		if out.ChatID == testReviewGroup {
			groupNotices++
			want := DecisionAction(store.DecisionApprove, app.ChatID)
			if out.Keyboard[0][0].Action != want {
				t.Errorf("approve button = %q, want %q", out.Keyboard[0][0].Action, want)
			}
		}
	}
	if groupNotices != 1 {
		t.Errorf("expected exactly one group submission notice, got %d", groupNotices)
	}
}

func TestOnboardingReferralPath(t *testing.T) {
	m := testMachine()
	app := store.Application{
		ChatID: 7, Name: "Jane", Company: "Acme", Expertise: "Go",
		Email: "j@a.t", Motivation: "community",
		State: store.Onboarding(store.StepVerification),
	}

	o := m.Choice(app, ActionVerifyReferral)
	if o.State.Step != store.StepReferralName {
		t.Fatalf("expected AWAIT_REFERRAL_NAME, got %+v", o.State)
	}
	app = advance(app, o)

	o = m.Text(app, "Bob Member")
	if o.State.Step != store.StepReferralID {
		t.Fatalf("expected AWAIT_REFERRAL_ID, got %+v", o.State)
	}
	app = advance(app, o)

	o = m.Text(app, "@bob")
	app = advance(app, o)
	if app.State.Kind != store.KindCompleted {
		t.Fatalf("expected COMPLETED, got %+v", app.State)
	}
	if app.VerifyMethod != store.MethodReferral || app.VerifyRefName != "Bob Member" || app.VerifyValue != "@bob" {
		t.Errorf("referral not recorded: %+v", app)
	}
}

func TestInvalidResumeURLDoesNotAdvance(t *testing.T) {
	m := testMachine()
	app := store.Application{ChatID: 9, State: store.Onboarding(store.StepResume)}

	o := m.Text(app, "my resume is great")
	if o.ChangeState || o.Writes != (store.Writes{}) {
		t.Fatal("invalid resume URL must not advance or write")
	}
	if len(o.Out) != 1 || !strings.Contains(o.Out[0].Text, "valid link") {
		t.Errorf("expected re-prompt, got %+v", o.Out)
	}
}

func TestEditFieldRoundTrip(t *testing.T) {
	m := testMachine()
	app := store.Application{ChatID: 3, Name: "Jane", State: store.ProfileMenu()}

	o := m.Choice(app, "edit_email")
	if !o.ChangeState || o.State.Kind != store.KindEditing || o.State.Field != store.FieldEmail {
		t.Fatalf("expected EDIT_EMAIL, got %+v", o.State)
	}
	app = advance(app, o)

	o = m.Text(app, "new@mail.test")
	app = advance(app, o)
	if app.Email != "new@mail.test" {
		t.Errorf("email not written: %q", app.Email)
	}
	if app.State.Kind != store.KindProfileMenu {
		t.Errorf("expected return to profile menu, got %+v", app.State)
	}
}

func TestResubmitClearsReviewFieldsOnly(t *testing.T) {
	m := testMachine()
	app := store.Application{
		ChatID: 5, Name: "Jane", Company: "Acme", Expertise: "Go",
		Email: "j@a.t", Motivation: "community",
		VerifyMethod: store.MethodResume, VerifyValue: "https://cv.test/jane",
		Status: store.StatusRejected, DecisionReason: "too junior",
		ReviewedByID: 11, ReviewedByName: "@rev",
		State: store.Completed(),
	}

	o := m.Choice(app, ActionResubmit)
	if o.ChangeState {
		t.Error("resubmit must not change conversation state")
	}
	app = advance(app, o)

	if app.Status != store.StatusPending || app.DecisionReason != "" || app.ReviewedByID != 0 {
		t.Errorf("review fields not cleared: %+v", app)
	}
	if app.VerifyMethod != store.MethodResume || app.Email != "j@a.t" {
		t.Errorf("profile fields must survive resubmit: %+v", app)
	}

	var groupNotices int
	for _, out := range o.Out {
		if out.ChatID == testReviewGroup {
			groupNotices++
		}
	}
	if groupNotices != 1 {
		t.Errorf("expected one group notice, got %d", groupNotices)
	}
}

func TestResubmitRequiresCompleteProfile(t *testing.T) {
	m := testMachine()
	o := m.Choice(store.Application{ChatID: 5, Name: "Jane"}, ActionResubmit)
	if o.ChangeState || o.Writes != (store.Writes{}) {
		t.Error("incomplete profile must not be resubmittable")
	}
}

func TestParseDecisionAction(t *testing.T) {
	d, id, ok := ParseDecisionAction("approve_42")
	if !ok || d != store.DecisionApprove || id != 42 {
		t.Errorf("approve_42 parsed as (%v, %d, %v)", d, id, ok)
	}
	d, id, ok = ParseDecisionAction("reject_-100123")
	if !ok || d != store.DecisionReject || id != -100123 {
		t.Errorf("reject_-100123 parsed as (%v, %d, %v)", d, id, ok)
	}
	for _, bad := range []string{"approve_", "approve_x", "view_profile", ""} {
		if _, _, ok := ParseDecisionAction(bad); ok {
			t.Errorf("ParseDecisionAction(%q) unexpectedly ok", bad)
		}
	}
}
