// Package domain implements the point-ledger command interpreter: parsing
// slash-command text, resolving member permissions, applying clamped point
// transfers and aggregating house totals.
package domain

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/lumenad-public/HogwartsForSlack/internal/points/render"
	"github.com/lumenad-public/HogwartsForSlack/internal/points/storage"
)

// CommandInput is one inbound slash-command invocation.
type CommandInput struct {
	// Requester identifies who issued the command.
	Requester string
	// Privileged marks requesters exempt from the point clamp and the
	// self-targeting prohibition.
	Privileged bool
	// Text is the raw free-text argument of the command.
	Text string
}

// Attachment is one secondary text block of a response.
type Attachment struct {
	Text string
}

// Response is the reply shown for one command. Every command produces
// exactly one Response; failures surface as text, never as errors.
type Response struct {
	Text        string
	Attachments []Attachment
}

// Service interprets point commands against a member store.
type Service struct {
	store storage.MemberStore
}

// NewService constructs the command interpreter.
func NewService(store storage.MemberStore) *Service {
	return &Service{store: store}
}

// HandleCommand routes one command invocation:
//
//   - no argument text: global house summary
//   - one token naming a house: that house's member listing
//   - one token otherwise: single member lookup
//   - two or more tokens: point allocation to every mentioned target
//
// A non-privileged requester who targets themselves aborts the whole batch
// before any mutation, even when other targets were legitimate.
func (s *Service) HandleCommand(ctx context.Context, input CommandInput) Response {
	tokens := strings.Fields(input.Text)
	requester := NormalizeName(input.Requester)

	switch len(tokens) {
	case 0:
		return s.summary(ctx)
	case 1:
		key := NormalizeName(tokens[0])
		if IsHouse(key) {
			return s.houseListing(ctx, key)
		}
		return s.memberLookup(ctx, key)
	}

	cmd := ParseCommand(tokens)
	if !input.Privileged {
		for _, target := range cmd.Targets {
			if target == requester {
				response := s.memberLookup(ctx, requester)
				response.Attachments = append(response.Attachments, Attachment{Text: render.Rejection})
				return response
			}
		}
	}

	lines := make([]string, 0, len(cmd.Targets))
	for _, target := range cmd.Targets {
		lines = append(lines, s.allocate(ctx, target, cmd.Amount, requester, input.Privileged))
	}
	return Response{Text: strings.Join(lines, "\n")}
}

// resolveMember derives (found, eligible, display name) for one member key.
// Lookup misses and store errors alike report found=false; nothing
// propagates to the caller.
func (s *Service) resolveMember(ctx context.Context, key string) (found bool, eligible bool, displayName string) {
	record, err := s.store.GetMember(ctx, key)
	if err != nil {
		return false, false, key
	}
	return true, record.CanHas, DisplayName(record)
}

// allocate applies one clamped point transfer and describes the outcome.
func (s *Service) allocate(ctx context.Context, target string, delta int64, requester string, privileged bool) string {
	delta = ClampPoints(delta, privileged)

	requesterFound, requesterEligible, requesterName := s.resolveMember(ctx, requester)
	targetFound, targetEligible, targetName := s.resolveMember(ctx, target)
	if requesterFound {
		requesterName = render.Emphasis(requesterName)
	}
	if targetFound {
		targetName = render.Emphasis(targetName)
	}

	switch {
	case !targetFound:
		return render.NoSuchMember(target)
	case requesterEligible && !targetEligible:
		return render.TargetIneligible(targetName)
	case !requesterEligible && targetEligible:
		return render.RequesterIneligible(requesterName)
	case !requesterEligible && !targetEligible:
		return render.BothIneligible(targetName, requesterName)
	}

	record, err := s.store.IncrementPoints(ctx, target, delta)
	if err != nil {
		return render.AllocationError(err)
	}
	total := record.Points

	// Floor correction: negative balances snap back to zero. When the
	// conditional write is skipped or fails, the increment result stays
	// authoritative.
	if corrected, err := s.store.ZeroNegativePoints(ctx, target); err == nil {
		total = corrected.Points
	}

	return render.Allocation(requesterName, targetName, delta, total)
}

// memberLookup reports one member's balance and house.
func (s *Service) memberLookup(ctx context.Context, key string) Response {
	record, err := s.store.GetMember(ctx, key)
	if err != nil {
		return Response{Text: render.NoSuchMember(key)}
	}
	return Response{Text: render.UserPoints(DisplayName(record), record.Points, record.House)}
}

// houseListing reports one house's total and its members sorted by points
// descending, scan order breaking ties.
func (s *Service) houseListing(ctx context.Context, house string) Response {
	records, err := s.store.ScanHouse(ctx, house)
	if err != nil {
		return Response{Text: render.SomethingWentWrong(err)}
	}

	var total int64
	for _, record := range records {
		total += record.Points
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Points > records[j].Points
	})
	lines := make([]string, 0, len(records))
	for _, record := range records {
		lines = append(lines, render.MemberLine(DisplayName(record), record.Points))
	}

	return Response{
		Text:        render.HousePoints(house, total),
		Attachments: []Attachment{{Text: strings.Join(lines, "\n")}},
	}
}

type houseTotal struct {
	house   string
	total   int64
	scanErr error
}

// summary reports every house's total, best first, paired with ordinal
// prefixes. A house whose scan fails reports an inline error while the
// others still rank normally, after them.
func (s *Service) summary(ctx context.Context) Response {
	totals := make([]houseTotal, 0, len(Houses))
	for _, house := range Houses {
		records, err := s.store.ScanHouse(ctx, house)
		if err != nil {
			totals = append(totals, houseTotal{house: house, scanErr: err})
			continue
		}
		entry := houseTotal{house: house}
		for _, record := range records {
			entry.total += record.Points
		}
		totals = append(totals, entry)
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if (totals[i].scanErr == nil) != (totals[j].scanErr == nil) {
			return totals[i].scanErr == nil
		}
		return totals[i].total > totals[j].total
	})

	var lines []string
	for i, entry := range totals {
		if i >= len(render.SummaryPrefixes) {
			break
		}
		totalText := strconv.FormatInt(entry.total, 10)
		if entry.scanErr != nil {
			totalText = "Error: " + entry.scanErr.Error()
		}
		lines = append(lines, render.SummaryLine(render.SummaryPrefixes[i], render.HouseTitle(entry.house), totalText))
	}
	return Response{Text: strings.Join(lines, "\n")}
}
