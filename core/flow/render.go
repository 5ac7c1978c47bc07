package flow

import (
	"fmt"
	"strings"

	"github.com/m3rciful/joinbot/core/gateway"
	"github.com/m3rciful/joinbot/core/store"
)

func mainMenu() gateway.Message {
	return gateway.Message{
		Text: "Welcome back! What would you like to do?",
		Keyboard: [][]gateway.Button{
			gateway.Row(gateway.Button{Text: "View profile", Action: ActionViewProfile}),
			gateway.Row(gateway.Button{Text: "Edit profile", Action: ActionEditProfile}),
			gateway.Row(gateway.Button{Text: "Resubmit application", Action: ActionResubmit}),
		},
	}
}

func verificationMenu() gateway.Message {
	return gateway.Message{
		Text: "Almost done. How would you like to verify your identity?",
		Keyboard: [][]gateway.Button{
			gateway.Row(gateway.Button{Text: "LinkedIn profile", Action: ActionVerifyLinkedIn}),
			gateway.Row(gateway.Button{Text: "Resume / portfolio link", Action: ActionVerifyResume}),
			gateway.Row(gateway.Button{Text: "Referral from a member", Action: ActionVerifyReferral}),
		},
	}
}

func editMenu() gateway.Message {
	return gateway.Message{
		Text: "Which field would you like to change?",
		Keyboard: [][]gateway.Button{
			gateway.Row(
				gateway.Button{Text: "Name", Action: "edit_name"},
				gateway.Button{Text: "Company", Action: "edit_company"},
			),
			gateway.Row(
				gateway.Button{Text: "Expertise", Action: "edit_expertise"},
				gateway.Button{Text: "Email", Action: "edit_email"},
			),
			gateway.Row(
				gateway.Button{Text: "Motivation", Action: "edit_motivation"},
				gateway.Button{Text: "Verification", Action: ActionEditVerification},
			),
		},
	}
}

// Summary renders the application body shown to reviewers.
func Summary(app store.Application) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", app.Name)
	fmt.Fprintf(&b, "Company: %s\n", app.Company)
	fmt.Fprintf(&b, "Expertise: %s\n", app.Expertise)
	fmt.Fprintf(&b, "Email: %s\n", app.Email)
	fmt.Fprintf(&b, "Motivation: %s\n", app.Motivation)
	fmt.Fprintf(&b, "Verification: %s\n", app.VerificationLabel())
	fmt.Fprintf(&b, "Applicant ID: %d", app.ChatID)
	return b.String()
}

func statusLine(app store.Application) string {
	switch app.Status {
	case store.StatusApproved:
		return "Status: approved"
	case store.StatusRejected:
		if app.DecisionReason != "" {
			return "Status: rejected\nReason: " + app.DecisionReason
		}
		return "Status: rejected"
	default:
		return "Status: pending review"
	}
}

func profileView(app store.Application) gateway.Message {
	text := "Your profile:\n\n" + Summary(app) + "\n\n" + statusLine(app)
	return gateway.Message{
		Text: text,
		Keyboard: [][]gateway.Button{
			gateway.Row(gateway.Button{Text: "Edit profile", Action: ActionEditProfile}),
			gateway.Row(gateway.Button{Text: "Resubmit application", Action: ActionResubmit}),
		},
	}
}

func submissionNotice(app store.Application) gateway.Message {
	return gateway.Message{
		Text: "New membership application\n\n" + Summary(app),
		Keyboard: [][]gateway.Button{
			gateway.Row(
				gateway.Button{Text: "Approve", Action: DecisionAction(store.DecisionApprove, app.ChatID)},
				gateway.Button{Text: "Reject", Action: DecisionAction(store.DecisionReject, app.ChatID)},
			),
		},
	}
}
