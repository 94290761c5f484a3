package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"ordertrack/internal/rpc"
)

// Service answers the order command surface from SQLite.
type Service struct {
	Orders    *OrderRepo
	Opened    *OpenedRepo
	Companies *CompanyRepo
	Settings  *SettingRepo
	Theme     *ThemeRepo
	Dashboard *DashboardRepo
}

var _ rpc.Service = (*Service)(nil)

// NewService builds the repositories over a migrated db.
func NewService(db *sql.DB, policy rpc.StackPolicy) *Service {
	return &Service{
		Orders:    NewOrderRepo(db),
		Opened:    NewOpenedRepo(db, policy),
		Companies: NewCompanyRepo(db),
		Settings:  NewSettingRepo(db),
		Theme:     NewThemeRepo(db),
		Dashboard: NewDashboardRepo(db),
	}
}

func (s *Service) ListOrders(ctx context.Context) ([]rpc.OrderSummary, error) {
	return s.Orders.List(ctx)
}

func (s *Service) DeleteOrder(ctx context.Context, id int64) error {
	return s.Orders.Delete(ctx, id)
}

func (s *Service) SetOrderDone(ctx context.Context, id int64, done bool) error {
	return s.Orders.SetDone(ctx, id, done)
}

func (s *Service) GetOpenedOrders(ctx context.Context) ([]rpc.OpenedEntry, error) {
	return s.Opened.List(ctx)
}

func (s *Service) OpenOrder(ctx context.Context, id int64) error {
	return s.Opened.Open(ctx, id)
}

func (s *Service) RemoveOpenedOrder(ctx context.Context, id int64) error {
	return s.Opened.Remove(ctx, id)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (rpc.OrderDetail, error) {
	return s.Orders.Get(ctx, id)
}

func (s *Service) SaveOrder(ctx context.Context, in rpc.OrderInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return s.Orders.Create(ctx, in)
}

func (s *Service) UpdateOrder(ctx context.Context, id int64, in rpc.OrderInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	return s.Orders.Update(ctx, id, in)
}

func (s *Service) GetThemeColors(ctx context.Context) (*rpc.ThemeDTO, error) {
	return s.Theme.Get(ctx)
}

func (s *Service) SaveThemeColors(ctx context.Context, theme rpc.ThemeDTO) error {
	return s.Theme.Save(ctx, theme)
}

func (s *Service) GetConfettiPalette(ctx context.Context) ([]string, error) {
	return s.Theme.Palette(ctx)
}

func (s *Service) GetSetting(ctx context.Context, key string) (*string, error) {
	return s.Settings.Get(ctx, key)
}

func (s *Service) SetSetting(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: setting key is required", rpc.ErrInvalidInput)
	}
	return s.Settings.Set(ctx, key, value)
}

func (s *Service) ListDeliveryCompanies(ctx context.Context) ([]rpc.DeliveryCompany, error) {
	return s.Companies.List(ctx)
}

func (s *Service) AddDeliveryCompany(ctx context.Context, name string) (int64, error) {
	return s.Companies.Add(ctx, name)
}

func (s *Service) SetDeliveryCompanyActive(ctx context.Context, id int64, active bool) error {
	return s.Companies.SetActive(ctx, id, active)
}

func (s *Service) RenameDeliveryCompany(ctx context.Context, id int64, newName string) error {
	return s.Companies.Rename(ctx, id, newName)
}

func (s *Service) SearchArticleNames(ctx context.Context, query string, limit int) ([]string, error) {
	return s.Orders.SearchArticles(ctx, query, limit)
}

func (s *Service) GetLatestDescriptionForArticle(ctx context.Context, name string) (*string, error) {
	return s.Orders.LatestDescription(ctx, name)
}

func (s *Service) GetDashboardData(ctx context.Context) (rpc.DashboardData, error) {
	return s.Dashboard.Load(ctx)
}
