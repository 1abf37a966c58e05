// Package render produces the Slack mrkdwn copy for point-ledger responses.
// The domain layer decides what happened; this package owns the wording and
// the markup.
package render

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SummaryPrefixes are the ordinal labels paired positionally with houses in
// the global summary, best house first. Houses beyond the last prefix are
// omitted from the report.
var SummaryPrefixes = []string{
	"In the lead is ",
	"Second place is ",
	"Third place is ",
	"Fourth place is ",
}

// Rejection annotates a non-privileged requester's attempt to change their
// own balance.
const Rejection = "_It's considered bad form to give youself points. Your point total has not changed_ :thumbsdown:"

var houseTitle = cases.Title(language.English)

// Emphasis wraps text in Slack italic markup.
func Emphasis(text string) string {
	return "_" + text + "_"
}

// HouseTitle capitalizes a normalized house key for display.
func HouseTitle(house string) string {
	return houseTitle.String(house)
}

// Allocation describes one applied point transfer. The sign of delta picks
// the verb; the reported total is the post-write balance.
func Allocation(requester, target string, delta, total int64) string {
	action := fmt.Sprintf("awarded %d points to %s", delta, target)
	if delta < 0 {
		action = fmt.Sprintf("detracted %d points from %s", -delta, target)
	}
	return fmt.Sprintf("%s has %s for a total of %d points", requester, action, total)
}

// NoSuchMember reports a lookup miss for a user key.
func NoSuchMember(key string) string {
	return fmt.Sprintf("No such witch/wizard: %s", key)
}

// TargetIneligible reports a target whose can_has flag is off.
func TargetIneligible(target string) string {
	return fmt.Sprintf("%s is unable to receive or lose points at the moment", target)
}

// RequesterIneligible reports a requester whose can_has flag is off.
func RequesterIneligible(requester string) string {
	return fmt.Sprintf("%s is unable to give or detract points at the moment", requester)
}

// BothIneligible reports that neither side of a transfer may alter points.
func BothIneligible(target, requester string) string {
	return fmt.Sprintf("Neither %s nor %s may alter point totals at the moment", target, requester)
}

// AllocationError reports a store failure during a transfer.
func AllocationError(err error) string {
	return fmt.Sprintf("Error %v.", err)
}

// SomethingWentWrong reports a generic per-operation failure.
func SomethingWentWrong(err error) string {
	return fmt.Sprintf("Something went wrong: %v", err)
}

// UserPoints reports one member's balance and house.
func UserPoints(displayName string, points int64, house string) string {
	return fmt.Sprintf("%s has %d points for house %s", Emphasis(displayName), points, HouseTitle(house))
}

// HousePoints reports one house total above its member listing.
func HousePoints(house string, total int64) string {
	return fmt.Sprintf("%s has %d points", house, total)
}

// MemberLine is one row of a house member listing.
func MemberLine(displayName string, points int64) string {
	return fmt.Sprintf("%s: %d", Emphasis(displayName), points)
}

// SummaryLine is one row of the global summary.
func SummaryLine(prefix, house, total string) string {
	return Emphasis(fmt.Sprintf("%s%s with %s points", prefix, house, total))
}
