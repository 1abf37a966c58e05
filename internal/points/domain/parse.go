package domain

import (
	"strconv"
	"strings"
)

// DefaultPoints is awarded when a command names targets but no amount.
const DefaultPoints int64 = 1000

// Command is one parsed allocation request.
type Command struct {
	// Targets holds normalized recipient names, deduplicated, in
	// first-mention order.
	Targets []string
	// Amount is the requested point delta before clamping.
	Amount int64
	// Message is the residual free text, joined with single spaces.
	Message string
}

// NormalizeName canonicalizes a raw user or house token into a lookup key.
// Both "@gryffindor" and "GRYFFINDOR," normalize to "gryffindor".
func NormalizeName(raw string) string {
	cleaned := strings.NewReplacer("@", "", ",", "").Replace(raw)
	return strings.ToLower(strings.TrimSpace(cleaned))
}

// isAmountToken reports whether a token is usable as a point amount.
func isAmountToken(tok string) bool {
	_, err := strconv.ParseInt(tok, 10, 64)
	return err == nil
}

// ParseCommand sorts a whitespace-split token sequence into targets, a point
// amount and a residual message.
//
// Targets are the tokens containing "@". The amount is the first token that
// parses as an integer; later numeric tokens stay in the message so that
// phrases like "thanks for helping me 100 times" survive intact. When no
// integer token is present the amount defaults to DefaultPoints.
func ParseCommand(tokens []string) Command {
	cmd := Command{Amount: DefaultPoints}

	seen := make(map[string]struct{})
	for _, tok := range tokens {
		if !strings.Contains(tok, "@") {
			continue
		}
		name := NormalizeName(tok)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		cmd.Targets = append(cmd.Targets, name)
	}

	haveAmount := false
	for _, tok := range tokens {
		if isAmountToken(tok) {
			cmd.Amount, _ = strconv.ParseInt(tok, 10, 64)
			haveAmount = true
			break
		}
	}

	var message []string
	for _, tok := range tokens {
		if strings.Contains(tok, "@") {
			continue
		}
		if haveAmount && isAmountToken(tok) {
			if value, _ := strconv.ParseInt(tok, 10, 64); value == cmd.Amount {
				continue
			}
		}
		message = append(message, tok)
	}
	cmd.Message = strings.Join(message, " ")

	return cmd
}
