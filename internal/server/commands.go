package server

import (
	"bytes"
	"context"
	"io"

	"ordertrack/internal/jsonutil"
	"ordertrack/internal/rpc"
)

type handler func(ctx context.Context, body io.Reader) (interface{}, error)

// command decodes the named arguments strictly before calling fn. An empty
// body is treated as no arguments.
func command[A any](name string, fn func(ctx context.Context, args A) (interface{}, error)) handler {
	return func(ctx context.Context, body io.Reader) (interface{}, error) {
		data, err := io.ReadAll(body)
		if err != nil {
			return nil, &argsError{err}
		}
		var args A
		if len(bytes.TrimSpace(data)) > 0 {
			if err := jsonutil.DecodeStrict(bytes.NewReader(data), &args, name+" args"); err != nil {
				return nil, &argsError{err}
			}
		}
		return fn(ctx, args)
	}
}

// done adapts commands with no result.
func done(err error) (interface{}, error) { return nil, err }

func commands(svc rpc.Service) map[string]handler {
	return map[string]handler{
		rpc.CmdListOrders: command(rpc.CmdListOrders, func(ctx context.Context, _ rpc.NoArgs) (interface{}, error) {
			return svc.ListOrders(ctx)
		}),
		rpc.CmdDeleteOrder: command(rpc.CmdDeleteOrder, func(ctx context.Context, a rpc.IDArgs) (interface{}, error) {
			return done(svc.DeleteOrder(ctx, a.ID))
		}),
		rpc.CmdSetOrderDone: command(rpc.CmdSetOrderDone, func(ctx context.Context, a rpc.SetDoneArgs) (interface{}, error) {
			return done(svc.SetOrderDone(ctx, a.ID, a.Done))
		}),
		rpc.CmdGetOpenedOrders: command(rpc.CmdGetOpenedOrders, func(ctx context.Context, _ rpc.NoArgs) (interface{}, error) {
			return svc.GetOpenedOrders(ctx)
		}),
		rpc.CmdOpenOrder: command(rpc.CmdOpenOrder, func(ctx context.Context, a rpc.IDArgs) (interface{}, error) {
			return done(svc.OpenOrder(ctx, a.ID))
		}),
		rpc.CmdRemoveOpenedOrder: command(rpc.CmdRemoveOpenedOrder, func(ctx context.Context, a rpc.IDArgs) (interface{}, error) {
			return done(svc.RemoveOpenedOrder(ctx, a.ID))
		}),
		rpc.CmdGetOrder: command(rpc.CmdGetOrder, func(ctx context.Context, a rpc.IDArgs) (interface{}, error) {
			return svc.GetOrder(ctx, a.ID)
		}),
		rpc.CmdSaveOrder: command(rpc.CmdSaveOrder, func(ctx context.Context, a rpc.SaveOrderArgs) (interface{}, error) {
			return svc.SaveOrder(ctx, a.Order)
		}),
		rpc.CmdUpdateOrder: command(rpc.CmdUpdateOrder, func(ctx context.Context, a rpc.UpdateOrderArgs) (interface{}, error) {
			return done(svc.UpdateOrder(ctx, a.ID, a.Order))
		}),
		rpc.CmdGetThemeColors: command(rpc.CmdGetThemeColors, func(ctx context.Context, _ rpc.NoArgs) (interface{}, error) {
			t, err := svc.GetThemeColors(ctx)
			if err != nil || t == nil {
				return nil, err
			}
			return t, nil
		}),
		rpc.CmdSaveThemeColors: command(rpc.CmdSaveThemeColors, func(ctx context.Context, a rpc.SaveThemeArgs) (interface{}, error) {
			return done(svc.SaveThemeColors(ctx, a.Payload))
		}),
		rpc.CmdGetConfettiPalette: command(rpc.CmdGetConfettiPalette, func(ctx context.Context, _ rpc.NoArgs) (interface{}, error) {
			return svc.GetConfettiPalette(ctx)
		}),
		rpc.CmdGetSetting: command(rpc.CmdGetSetting, func(ctx context.Context, a rpc.GetSettingArgs) (interface{}, error) {
			v, err := svc.GetSetting(ctx, a.Key)
			if err != nil || v == nil {
				return nil, err
			}
			return *v, nil
		}),
		rpc.CmdSetSetting: command(rpc.CmdSetSetting, func(ctx context.Context, a rpc.SetSettingArgs) (interface{}, error) {
			return done(svc.SetSetting(ctx, a.Key, a.Value))
		}),
		rpc.CmdListDeliveryCompanies: command(rpc.CmdListDeliveryCompanies, func(ctx context.Context, _ rpc.NoArgs) (interface{}, error) {
			return svc.ListDeliveryCompanies(ctx)
		}),
		rpc.CmdAddDeliveryCompany: command(rpc.CmdAddDeliveryCompany, func(ctx context.Context, a rpc.AddCompanyArgs) (interface{}, error) {
			return svc.AddDeliveryCompany(ctx, a.Name)
		}),
		rpc.CmdSetDeliveryCompanyActive: command(rpc.CmdSetDeliveryCompanyActive, func(ctx context.Context, a rpc.SetCompanyActiveArgs) (interface{}, error) {
			return done(svc.SetDeliveryCompanyActive(ctx, a.ID, a.Active))
		}),
		rpc.CmdRenameDeliveryCompany: command(rpc.CmdRenameDeliveryCompany, func(ctx context.Context, a rpc.RenameCompanyArgs) (interface{}, error) {
			return done(svc.RenameDeliveryCompany(ctx, a.ID, a.NewName))
		}),
		rpc.CmdSearchArticleNames: command(rpc.CmdSearchArticleNames, func(ctx context.Context, a rpc.SearchArticlesArgs) (interface{}, error) {
			return svc.SearchArticleNames(ctx, a.Query, a.Limit)
		}),
		rpc.CmdLatestDescription: command(rpc.CmdLatestDescription, func(ctx context.Context, a rpc.LatestDescriptionArgs) (interface{}, error) {
			v, err := svc.GetLatestDescriptionForArticle(ctx, a.Name)
			if err != nil || v == nil {
				return nil, err
			}
			return *v, nil
		}),
		rpc.CmdGetDashboardData: command(rpc.CmdGetDashboardData, func(ctx context.Context, _ rpc.NoArgs) (interface{}, error) {
			return svc.GetDashboardData(ctx)
		}),
	}
}
