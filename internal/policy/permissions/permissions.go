// Package permissions interprets Telegram chat member rights.
package permissions

import api "github.com/OvyFlash/telegram-bot-api"

// CanModerate reports whether the member may both restrict members and
// delete their messages, which is what enforcing a verdict takes.
func CanModerate(member *api.ChatMember) bool {
	if member == nil {
		return false
	}
	if member.IsCreator() {
		return true
	}
	return member.IsAdministrator() && member.CanRestrictMembers && member.CanDeleteMessages
}
