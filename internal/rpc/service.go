package rpc

import (
	"context"
	"fmt"

	"ordertrack/internal/jsonutil"
)

// Service is the typed command surface. *Client implements it; tests supply
// in-memory fakes.
type Service interface {
	ListOrders(ctx context.Context) ([]OrderSummary, error)
	DeleteOrder(ctx context.Context, id int64) error
	SetOrderDone(ctx context.Context, id int64, done bool) error

	GetOpenedOrders(ctx context.Context) ([]OpenedEntry, error)
	OpenOrder(ctx context.Context, id int64) error
	RemoveOpenedOrder(ctx context.Context, id int64) error

	GetOrder(ctx context.Context, id int64) (OrderDetail, error)
	SaveOrder(ctx context.Context, in OrderInput) (int64, error)
	UpdateOrder(ctx context.Context, id int64, in OrderInput) error

	GetThemeColors(ctx context.Context) (*ThemeDTO, error)
	SaveThemeColors(ctx context.Context, theme ThemeDTO) error
	GetConfettiPalette(ctx context.Context) ([]string, error)

	GetSetting(ctx context.Context, key string) (*string, error)
	SetSetting(ctx context.Context, key, value string) error

	ListDeliveryCompanies(ctx context.Context) ([]DeliveryCompany, error)
	AddDeliveryCompany(ctx context.Context, name string) (int64, error)
	SetDeliveryCompanyActive(ctx context.Context, id int64, active bool) error
	RenameDeliveryCompany(ctx context.Context, id int64, newName string) error

	SearchArticleNames(ctx context.Context, query string, limit int) ([]string, error)
	GetLatestDescriptionForArticle(ctx context.Context, name string) (*string, error)

	GetDashboardData(ctx context.Context) (DashboardData, error)
}

var _ Service = (*Client)(nil)

func decodeError(command string, err error) error {
	return &Error{Command: command, Kind: KindDecode, Err: err}
}

func invalid(command, format string, args ...interface{}) error {
	return decodeError(command, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidResponse}, args...)...))
}

func list[T any](ctx context.Context, c *Client, command string, args interface{}) ([]T, error) {
	raw, err := c.call(ctx, command, args)
	if err != nil {
		return nil, err
	}
	out, err := jsonutil.UnmarshalArrayAllowEmpty[T](raw, command)
	if err != nil {
		return nil, decodeError(command, err)
	}
	return out, nil
}

func optional[T any](ctx context.Context, c *Client, command string, args interface{}) (*T, error) {
	raw, err := c.call(ctx, command, args)
	if err != nil {
		return nil, err
	}
	out, err := jsonutil.UnmarshalOptional[T](raw, command)
	if err != nil {
		return nil, decodeError(command, err)
	}
	return out, nil
}

func (c *Client) newID(ctx context.Context, command string, args interface{}) (int64, error) {
	var id int64
	if err := c.Call(ctx, command, args, &id); err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, invalid(command, "non-positive id %d", id)
	}
	return id, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]OrderSummary, error) {
	orders, err := list[OrderSummary](ctx, c, CmdListOrders, nil)
	if err != nil {
		return nil, err
	}
	if err := ValidateSummaries(orders); err != nil {
		return nil, decodeError(CmdListOrders, err)
	}
	return orders, nil
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.Call(ctx, CmdDeleteOrder, IDArgs{ID: id}, nil)
}

func (c *Client) SetOrderDone(ctx context.Context, id int64, done bool) error {
	return c.Call(ctx, CmdSetOrderDone, SetDoneArgs{ID: id, Done: done}, nil)
}

func (c *Client) GetOpenedOrders(ctx context.Context) ([]OpenedEntry, error) {
	entries, err := list[OpenedEntry](ctx, c, CmdGetOpenedOrders, nil)
	if err != nil {
		return nil, err
	}
	if err := ValidateOpened(entries); err != nil {
		return nil, decodeError(CmdGetOpenedOrders, err)
	}
	return entries, nil
}

func (c *Client) OpenOrder(ctx context.Context, id int64) error {
	return c.Call(ctx, CmdOpenOrder, IDArgs{ID: id}, nil)
}

func (c *Client) RemoveOpenedOrder(ctx context.Context, id int64) error {
	return c.Call(ctx, CmdRemoveOpenedOrder, IDArgs{ID: id}, nil)
}

func (c *Client) GetOrder(ctx context.Context, id int64) (OrderDetail, error) {
	var d OrderDetail
	if err := c.Call(ctx, CmdGetOrder, IDArgs{ID: id}, &d); err != nil {
		return OrderDetail{}, err
	}
	if d.ID != id {
		return OrderDetail{}, invalid(CmdGetOrder, "asked for order %d, got %d", id, d.ID)
	}
	return d, nil
}

func (c *Client) SaveOrder(ctx context.Context, in OrderInput) (int64, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return 0, err
	}
	return c.newID(ctx, CmdSaveOrder, SaveOrderArgs{Order: in})
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, in OrderInput) error {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return err
	}
	return c.Call(ctx, CmdUpdateOrder, UpdateOrderArgs{ID: id, Order: in}, nil)
}

func (c *Client) GetThemeColors(ctx context.Context) (*ThemeDTO, error) {
	return optional[ThemeDTO](ctx, c, CmdGetThemeColors, nil)
}

func (c *Client) SaveThemeColors(ctx context.Context, theme ThemeDTO) error {
	theme.ConfettiColors = CleanConfetti(theme.ConfettiColors)
	return c.Call(ctx, CmdSaveThemeColors, SaveThemeArgs{Payload: theme}, nil)
}

func (c *Client) GetConfettiPalette(ctx context.Context) ([]string, error) {
	return list[string](ctx, c, CmdGetConfettiPalette, nil)
}

func (c *Client) GetSetting(ctx context.Context, key string) (*string, error) {
	return optional[string](ctx, c, CmdGetSetting, GetSettingArgs{Key: key})
}

func (c *Client) SetSetting(ctx context.Context, key, value string) error {
	return c.Call(ctx, CmdSetSetting, SetSettingArgs{Key: key, Value: value}, nil)
}

func (c *Client) ListDeliveryCompanies(ctx context.Context) ([]DeliveryCompany, error) {
	return list[DeliveryCompany](ctx, c, CmdListDeliveryCompanies, nil)
}

func (c *Client) AddDeliveryCompany(ctx context.Context, name string) (int64, error) {
	return c.newID(ctx, CmdAddDeliveryCompany, AddCompanyArgs{Name: name})
}

func (c *Client) SetDeliveryCompanyActive(ctx context.Context, id int64, active bool) error {
	return c.Call(ctx, CmdSetDeliveryCompanyActive, SetCompanyActiveArgs{ID: id, Active: active}, nil)
}

func (c *Client) RenameDeliveryCompany(ctx context.Context, id int64, newName string) error {
	return c.Call(ctx, CmdRenameDeliveryCompany, RenameCompanyArgs{ID: id, NewName: newName}, nil)
}

func (c *Client) SearchArticleNames(ctx context.Context, query string, limit int) ([]string, error) {
	return list[string](ctx, c, CmdSearchArticleNames, SearchArticlesArgs{Query: query, Limit: limit})
}

func (c *Client) GetLatestDescriptionForArticle(ctx context.Context, name string) (*string, error) {
	return optional[string](ctx, c, CmdLatestDescription, LatestDescriptionArgs{Name: name})
}

func (c *Client) GetDashboardData(ctx context.Context) (DashboardData, error) {
	var d DashboardData
	if err := c.Call(ctx, CmdGetDashboardData, nil, &d); err != nil {
		return DashboardData{}, err
	}
	return d, nil
}

// ValidateSummaries checks that every summary carries a positive unique id.
func ValidateSummaries(orders []OrderSummary) error {
	seen := make(map[int64]struct{}, len(orders))
	for i, o := range orders {
		if o.ID <= 0 {
			return fmt.Errorf("%w: order %d has id %d", ErrInvalidResponse, i, o.ID)
		}
		if _, dup := seen[o.ID]; dup {
			return fmt.Errorf("%w: order %d listed twice", ErrInvalidResponse, o.ID)
		}
		seen[o.ID] = struct{}{}
	}
	return nil
}

// ValidateOpened checks stack entries for positive unique ids and positive
// positions.
func ValidateOpened(entries []OpenedEntry) error {
	seen := make(map[int64]struct{}, len(entries))
	for _, e := range entries {
		if e.OrderID <= 0 {
			return fmt.Errorf("%w: opened entry has id %d", ErrInvalidResponse, e.OrderID)
		}
		if e.Position <= 0 {
			return fmt.Errorf("%w: opened entry %d has position %d", ErrInvalidResponse, e.OrderID, e.Position)
		}
		if _, dup := seen[e.OrderID]; dup {
			return fmt.Errorf("%w: order %d opened twice", ErrInvalidResponse, e.OrderID)
		}
		seen[e.OrderID] = struct{}{}
	}
	return nil
}
