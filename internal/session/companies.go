package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"ordertrack/internal/rpc"
)

// Companies manages the delivery company catalogue.
type Companies struct {
	svc    rpc.Service
	logger *slog.Logger
}

func NewCompanies(svc rpc.Service, logger *slog.Logger) *Companies {
	return &Companies{svc: svc, logger: logger}
}

func (c *Companies) List(ctx context.Context) ([]rpc.DeliveryCompany, error) {
	return c.svc.ListDeliveryCompanies(ctx)
}

// Add registers a company and returns its id.
func (c *Companies) Add(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: company name is required", rpc.ErrInvalidInput)
	}
	id, err := c.svc.AddDeliveryCompany(ctx, name)
	if err != nil {
		c.logger.Warn("add delivery company failed", "command", rpc.CmdAddDeliveryCompany, "error", err)
	}
	return id, err
}

func (c *Companies) SetActive(ctx context.Context, id int64, active bool) error {
	err := c.svc.SetDeliveryCompanyActive(ctx, id, active)
	if err != nil {
		c.logger.Warn("set delivery company active failed", "command", rpc.CmdSetDeliveryCompanyActive, "id", id, "error", err)
	}
	return err
}

func (c *Companies) Rename(ctx context.Context, id int64, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: company name is required", rpc.ErrInvalidInput)
	}
	err := c.svc.RenameDeliveryCompany(ctx, id, newName)
	if err != nil {
		c.logger.Warn("rename delivery company failed", "command", rpc.CmdRenameDeliveryCompany, "id", id, "error", err)
	}
	return err
}

// Match resolves typed text against the active companies. An exact
// case-insensitive match returns the stored name with exact set. Otherwise
// the closest name within a small edit distance is returned as a suggestion.
func Match(input string, companies []rpc.DeliveryCompany) (name string, exact bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}
	needle := strings.ToLower(input)

	best, bestDist := "", -1
	for _, c := range companies {
		if !c.Active {
			continue
		}
		candidate := strings.ToLower(c.Name)
		if candidate == needle {
			return c.Name, true
		}
		d := levenshtein.ComputeDistance(needle, candidate)
		if bestDist < 0 || d < bestDist {
			best, bestDist = c.Name, d
		}
	}
	if bestDist < 0 || bestDist > maxSuggestDistance(needle) {
		return "", false
	}
	return best, false
}

func maxSuggestDistance(s string) int {
	n := utf8.RuneCountInString(s) / 3
	if n < 2 {
		return 2
	}
	return n
}
