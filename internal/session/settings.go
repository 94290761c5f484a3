package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"ordertrack/internal/rpc"
)

// Settings reads and writes key/value preferences on the service.
type Settings struct {
	svc    rpc.Service
	logger *slog.Logger
}

func NewSettings(svc rpc.Service, logger *slog.Logger) *Settings {
	return &Settings{svc: svc, logger: logger}
}

var knownSettings = map[string]bool{
	rpc.SettingTheme:                  true,
	rpc.SettingDefaultCity:            true,
	rpc.SettingConfettiOnDone:         true,
	rpc.SettingDefaultDeliveryCompany: true,
}

// Get returns the value for key and whether it is set.
func (s *Settings) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.svc.GetSetting(ctx, key)
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

// Set stores value for one of the known keys.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	if !knownSettings[key] {
		return fmt.Errorf("%w: unknown setting %q", rpc.ErrInvalidInput, key)
	}
	if err := s.svc.SetSetting(ctx, key, strings.TrimSpace(value)); err != nil {
		s.logger.Warn("set setting failed", "command", rpc.CmdSetSetting, "key", key, "error", err)
		return err
	}
	return nil
}

// Preferences is the form-facing view of the settings.
type Preferences struct {
	DefaultCity            string
	DefaultDeliveryCompany string
	ConfettiOnDone         bool
}

// Preferences loads every preference the order form and list use. Missing
// or unreadable values fall back to zero values.
func (s *Settings) Preferences(ctx context.Context) (Preferences, error) {
	var p Preferences
	var firstErr error
	get := func(key string) string {
		v, _, err := s.Get(ctx, key)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		return v
	}
	p.DefaultCity = get(rpc.SettingDefaultCity)
	p.DefaultDeliveryCompany = get(rpc.SettingDefaultDeliveryCompany)
	p.ConfettiOnDone = parseBool(get(rpc.SettingConfettiOnDone))
	return p, firstErr
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}
