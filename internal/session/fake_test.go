package session

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"ordertrack/internal/rpc"
)

// fakeService is an in-memory rpc.Service. fail makes a command return an
// error; during runs a hook while the command is being served.
type fakeService struct {
	mu sync.Mutex

	orders   []rpc.OrderSummary
	details  map[int64]rpc.OrderDetail
	opened   []int64
	policy   rpc.StackPolicy
	theme    *rpc.ThemeDTO
	settings map[string]string
	articles []string
	descs    map[string]string
	palette  []string

	nextID int64
	fail   map[string]error
	during map[string]func()
	calls  []string
}

func newFake(orders ...rpc.OrderSummary) *fakeService {
	f := &fakeService{
		orders:   append([]rpc.OrderSummary(nil), orders...),
		details:  map[int64]rpc.OrderDetail{},
		policy:   rpc.PolicyAppend,
		settings: map[string]string{},
		descs:    map[string]string{},
		nextID:   100,
		fail:     map[string]error{},
		during:   map[string]func(){},
	}
	return f
}

var errRemote = errors.New("service unavailable")

// enter records the call and returns the injected failure, if any.
func (f *fakeService) enter(command string) error {
	f.mu.Lock()
	f.calls = append(f.calls, command)
	hook := f.during[command]
	err := f.fail[command]
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (f *fakeService) count(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == command {
			n++
		}
	}
	return n
}

func (f *fakeService) failOn(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[command] = err
}

func (f *fakeService) name(id int64) string {
	for _, o := range f.orders {
		if o.ID == id {
			return o.ArticleName
		}
	}
	return ""
}

func (f *fakeService) ListOrders(ctx context.Context) ([]rpc.OrderSummary, error) {
	if err := f.enter(rpc.CmdListOrders); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]rpc.OrderSummary{}, f.orders...), nil
}

func (f *fakeService) DeleteOrder(ctx context.Context, id int64) error {
	if err := f.enter(rpc.CmdDeleteOrder); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.orders {
		if o.ID == id {
			f.orders = append(f.orders[:i:i], f.orders[i+1:]...)
			break
		}
	}
	f.removeOpenedLocked(id)
	return nil
}

func (f *fakeService) SetOrderDone(ctx context.Context, id int64, done bool) error {
	if err := f.enter(rpc.CmdSetOrderDone); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].Done = done
		}
	}
	return nil
}

func (f *fakeService) GetOpenedOrders(ctx context.Context) ([]rpc.OpenedEntry, error) {
	if err := f.enter(rpc.CmdGetOpenedOrders); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]rpc.OpenedEntry, 0, len(f.opened))
	for i, id := range f.opened {
		out = append(out, rpc.OpenedEntry{OrderID: id, ArticleName: f.name(id), Position: i + 1})
	}
	return out, nil
}

func (f *fakeService) OpenOrder(ctx context.Context, id int64) error {
	if err := f.enter(rpc.CmdOpenOrder); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.opened {
		if existing == id {
			if f.policy == rpc.PolicyMRU {
				f.opened = append([]int64{id}, append(f.opened[:i:i], f.opened[i+1:]...)...)
			}
			return nil
		}
	}
	if f.policy == rpc.PolicyMRU {
		f.opened = append([]int64{id}, f.opened...)
	} else {
		f.opened = append(f.opened, id)
	}
	return nil
}

func (f *fakeService) RemoveOpenedOrder(ctx context.Context, id int64) error {
	if err := f.enter(rpc.CmdRemoveOpenedOrder); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeOpenedLocked(id)
	return nil
}

func (f *fakeService) removeOpenedLocked(id int64) {
	for i, existing := range f.opened {
		if existing == id {
			f.opened = append(f.opened[:i:i], f.opened[i+1:]...)
			return
		}
	}
}

func (f *fakeService) GetOrder(ctx context.Context, id int64) (rpc.OrderDetail, error) {
	if err := f.enter(rpc.CmdGetOrder); err != nil {
		return rpc.OrderDetail{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.details[id]
	if !ok {
		return rpc.OrderDetail{}, &rpc.Error{Command: rpc.CmdGetOrder, Kind: rpc.KindApplication, Message: "order not found"}
	}
	return d, nil
}

func (f *fakeService) SaveOrder(ctx context.Context, in rpc.OrderInput) (int64, error) {
	if err := f.enter(rpc.CmdSaveOrder); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.orders = append([]rpc.OrderSummary{{ID: id, ArticleName: in.ArticleName}}, f.orders...)
	return id, nil
}

func (f *fakeService) UpdateOrder(ctx context.Context, id int64, in rpc.OrderInput) error {
	if err := f.enter(rpc.CmdUpdateOrder); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.orders {
		if f.orders[i].ID == id {
			f.orders[i].ArticleName = in.ArticleName
			return nil
		}
	}
	return &rpc.Error{Command: rpc.CmdUpdateOrder, Kind: rpc.KindApplication, Message: "order not found"}
}

func (f *fakeService) GetThemeColors(ctx context.Context) (*rpc.ThemeDTO, error) {
	if err := f.enter(rpc.CmdGetThemeColors); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.theme == nil {
		return nil, nil
	}
	t := f.theme.Clone()
	return &t, nil
}

func (f *fakeService) SaveThemeColors(ctx context.Context, theme rpc.ThemeDTO) error {
	if err := f.enter(rpc.CmdSaveThemeColors); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := theme.Clone()
	f.theme = &t
	return nil
}

func (f *fakeService) GetConfettiPalette(ctx context.Context) ([]string, error) {
	if err := f.enter(rpc.CmdGetConfettiPalette); err != nil {
		return nil, err
	}
	return f.palette, nil
}

func (f *fakeService) GetSetting(ctx context.Context, key string) (*string, error) {
	if err := f.enter(rpc.CmdGetSetting); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.settings[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeService) SetSetting(ctx context.Context, key, value string) error {
	if err := f.enter(rpc.CmdSetSetting); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
	return nil
}

func (f *fakeService) ListDeliveryCompanies(ctx context.Context) ([]rpc.DeliveryCompany, error) {
	if err := f.enter(rpc.CmdListDeliveryCompanies); err != nil {
		return nil, err
	}
	return []rpc.DeliveryCompany{{ID: 1, Name: "DHL", Active: true}}, nil
}

func (f *fakeService) AddDeliveryCompany(ctx context.Context, name string) (int64, error) {
	if err := f.enter(rpc.CmdAddDeliveryCompany); err != nil {
		return 0, err
	}
	return 2, nil
}

func (f *fakeService) SetDeliveryCompanyActive(ctx context.Context, id int64, active bool) error {
	return f.enter(rpc.CmdSetDeliveryCompanyActive)
}

func (f *fakeService) RenameDeliveryCompany(ctx context.Context, id int64, newName string) error {
	return f.enter(rpc.CmdRenameDeliveryCompany)
}

func (f *fakeService) SearchArticleNames(ctx context.Context, query string, limit int) ([]string, error) {
	if err := f.enter(rpc.CmdSearchArticleNames); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, a := range f.articles {
		if strings.Contains(strings.ToLower(a), strings.ToLower(query)) {
			out = append(out, a)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeService) GetLatestDescriptionForArticle(ctx context.Context, name string) (*string, error) {
	if err := f.enter(rpc.CmdLatestDescription); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.descs[name]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (f *fakeService) GetDashboardData(ctx context.Context) (rpc.DashboardData, error) {
	if err := f.enter(rpc.CmdGetDashboardData); err != nil {
		return rpc.DashboardData{}, err
	}
	return rpc.DashboardData{Kpis: rpc.Kpis{TotalOrders: int64(len(f.orders))}}, nil
}

var _ rpc.Service = (*fakeService)(nil)
