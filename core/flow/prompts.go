package flow

import "github.com/m3rciful/joinbot/core/store"

const (
	msgJoinChannelFirst = "To apply for membership you need to follow our channel first. " +
		"Join it and then send /start again."
	msgAskName       = "Welcome! Let's get you registered. What is your full name?"
	msgAskCompany    = "Which company or project do you work at?"
	msgAskExpertise  = "What is your area of expertise?"
	msgAskEmail      = "What email address can we reach you at?"
	msgAskMotivation = "Why do you want to join the community?"

	msgAskLinkedIn     = "Send a link to your LinkedIn profile."
	msgAskResume       = "Send a link to your resume or portfolio."
	msgAskReferralName = "What is the name of the member who can vouch for you?"
	msgAskReferralID   = "Send their Telegram @username or numeric ID."

	msgBadLinkedIn = "That does not look like a LinkedIn profile link. " +
		"Please send a URL pointing at linkedin.com."
	msgBadResumeURL = "That does not look like a valid link. " +
		"Please send a full http(s) URL."

	msgSubmitted = "Thank you! Your application has been submitted for review. " +
		"We will let you know as soon as there is a decision."
	msgResubmitted = "Your application has been sent for review again."

	msgAlreadySubmitted = "Your application has already been submitted. " +
		"Use /profile to view or edit it."
	msgUseStart      = "I did not catch that. Send /start to begin."
	msgRegisterFirst = "You are not registered yet. Send /start to begin."
	msgCompleteFirst = "Your application is not complete yet. Send /start to finish it."
)

func editPrompt(field store.Field) string {
	switch field {
	case store.FieldName:
		return "Send your new name."
	case store.FieldCompany:
		return "Send your new company."
	case store.FieldExpertise:
		return "Send your new area of expertise."
	case store.FieldEmail:
		return "Send your new email address."
	case store.FieldMotivation:
		return "Send your new motivation."
	}
	return "Send the new value."
}
