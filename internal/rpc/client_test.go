package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// newTestServer answers every command with the handler registered for it.
func newTestServer(t *testing.T, handlers map[string]http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		command := strings.TrimPrefix(r.URL.Path, "/rpc/")
		h, ok := handlers[command]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown command " + command})
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, WithTimeout(2*time.Second))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func result(v interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"result": v})
	}
}

func TestClient_ListOrders(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		CmdListOrders: result([]OrderSummary{
			{ID: 2, ArticleName: "Lamp", Done: false},
			{ID: 1, ArticleName: "Chair", Done: true},
		}),
	})

	got, err := c.ListOrders(context.Background())
	require.NoError(t, err)

	want := []OrderSummary{
		{ID: 2, ArticleName: "Lamp"},
		{ID: 1, ArticleName: "Chair", Done: true},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ListOrders() mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_NullListIsEmpty(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		CmdGetOpenedOrders: result(nil),
	})

	got, err := c.GetOpenedOrders(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestClient_SendsNamedArgsAndRequestID(t *testing.T) {
	var gotBody map[string]interface{}
	var gotRequestID string
	c := newTestServer(t, map[string]http.HandlerFunc{
		CmdSetOrderDone: func(w http.ResponseWriter, r *http.Request) {
			gotRequestID = r.Header.Get(RequestIDHeader)
			body, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(body, &gotBody)
			writeJSON(w, http.StatusOK, map[string]interface{}{"result": nil})
		},
	})

	require.NoError(t, c.SetOrderDone(context.Background(), 7, true))

	if gotRequestID == "" {
		t.Error("request id header not set")
	}
	want := map[string]interface{}{"id": float64(7), "done": true}
	if diff := cmp.Diff(want, gotBody); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_ErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind ErrorKind
		wantMsg  string
	}{
		{
			name: "application error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "order not found"})
			},
			wantKind: KindApplication,
			wantMsg:  "order not found",
		},
		{
			name: "status without envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad gateway", http.StatusBadGateway)
			},
			wantKind: KindTransport,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("not json"))
			},
			wantKind: KindDecode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, map[string]http.HandlerFunc{CmdDeleteOrder: tt.handler})

			err := c.DeleteOrder(context.Background(), 1)
			var rpcErr *Error
			require.True(t, errors.As(err, &rpcErr), "want *rpc.Error, got %T", err)
			if rpcErr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", rpcErr.Kind, tt.wantKind)
			}
			if rpcErr.Command != CmdDeleteOrder {
				t.Errorf("Command = %q, want %q", rpcErr.Command, CmdDeleteOrder)
			}
			if tt.wantMsg != "" && rpcErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", rpcErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	err := c.OpenOrder(context.Background(), 3)
	if !IsKind(err, KindTimeout) {
		t.Fatalf("OpenOrder() error = %v, want timeout", err)
	}
}

func TestClient_ValidatesOpenedEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []OpenedEntry
	}{
		{"duplicate id", []OpenedEntry{{OrderID: 1, Position: 1}, {OrderID: 1, Position: 2}}},
		{"zero id", []OpenedEntry{{OrderID: 0, Position: 1}}},
		{"zero position", []OpenedEntry{{OrderID: 4, Position: 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, map[string]http.HandlerFunc{CmdGetOpenedOrders: result(tt.entries)})
			_, err := c.GetOpenedOrders(context.Background())
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("GetOpenedOrders() error = %v, want ErrInvalidResponse", err)
			}
			if !IsKind(err, KindDecode) {
				t.Errorf("GetOpenedOrders() error kind = %v, want decode", err)
			}
		})
	}
}

func TestClient_ValidatesSummaries(t *testing.T) {
	tests := []struct {
		name   string
		orders []OrderSummary
	}{
		{"duplicate id", []OrderSummary{{ID: 3, ArticleName: "Lamp"}, {ID: 3, ArticleName: "Chair"}}},
		{"zero id", []OrderSummary{{ID: 0, ArticleName: "Lamp"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, map[string]http.HandlerFunc{CmdListOrders: result(tt.orders)})
			_, err := c.ListOrders(context.Background())
			if !errors.Is(err, ErrInvalidResponse) {
				t.Errorf("ListOrders() error = %v, want ErrInvalidResponse", err)
			}
			if !IsKind(err, KindDecode) {
				t.Errorf("ListOrders() error kind = %v, want decode", err)
			}
		})
	}
}

func TestClient_SaveOrder(t *testing.T) {
	var got SaveOrderArgs
	c := newTestServer(t, map[string]http.HandlerFunc{
		CmdSaveOrder: func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewDecoder(r.Body).Decode(&got)
			writeJSON(w, http.StatusOK, map[string]interface{}{"result": 42})
		},
	})

	blank := "   "
	id, err := c.SaveOrder(context.Background(), OrderInput{
		ClientName:      " Ana ",
		ArticleName:     "Desk",
		Phone:           "555",
		City:            "Split",
		Address:         "Main 1",
		DeliveryCompany: "Fast",
		DeliveryDate:    "2024-05-01",
		Description:     &blank,
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), id)
	require.Equal(t, "Ana", got.Order.ClientName)
	require.Nil(t, got.Order.Description)
}

func TestClient_SaveOrderRejectsInvalidInput(t *testing.T) {
	c := NewClient("http://127.0.0.1:1")
	_, err := c.SaveOrder(context.Background(), OrderInput{ClientName: "Ana"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("SaveOrder() error = %v, want ErrInvalidInput", err)
	}
}

func TestClient_OptionalResults(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		CmdGetThemeColors: result(nil),
		CmdGetSetting:     result("Zagreb"),
	})

	theme, err := c.GetThemeColors(context.Background())
	require.NoError(t, err)
	require.Nil(t, theme)

	city, err := c.GetSetting(context.Background(), SettingDefaultCity)
	require.NoError(t, err)
	require.NotNil(t, city)
	require.Equal(t, "Zagreb", *city)
}

func TestClient_Ping(t *testing.T) {
	c := newTestServer(t, nil)
	require.NoError(t, c.Ping(context.Background()))
}

func TestMonthlyClients_JSON(t *testing.T) {
	var got []MonthlyClients
	require.NoError(t, json.Unmarshal([]byte(`[["2024-01",3,2],["2024-02",0,5]]`), &got))
	want := []MonthlyClients{{"2024-01", 3, 2}, {"2024-02", 0, 5}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("decode mismatch (-want +got):\n%s", diff)
	}

	data, err := json.Marshal(want[0])
	require.NoError(t, err)
	require.JSONEq(t, `["2024-01",3,2]`, string(data))

	var bad MonthlyClients
	require.Error(t, json.Unmarshal([]byte(`["2024-01",3]`), &bad))
}

func TestCleanConfetti(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"dedupe case-insensitive", []string{"#FFF", "#fff", "#000"}, []string{"#FFF", "#000"}},
		{"drop blanks", []string{"", " ", "#111"}, []string{"#111"}},
		{"clamp", []string{"#1", "#2", "#3", "#4", "#5", "#6"}, []string{"#1", "#2", "#3", "#4", "#5"}},
		{"empty", nil, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, CleanConfetti(tt.in)); diff != "" {
				t.Errorf("CleanConfetti() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOrderInput_Validate(t *testing.T) {
	valid := OrderInput{
		ClientName: "a", ArticleName: "b", Phone: "c", City: "d",
		Address: "e", DeliveryCompany: "f", DeliveryDate: "2024-02-29",
	}
	require.NoError(t, valid.Validate())

	badDate := valid
	badDate.DeliveryDate = "29/02/2024"
	require.ErrorIs(t, badDate.Validate(), ErrInvalidInput)

	missing := valid
	missing.Phone = " "
	require.ErrorIs(t, missing.Validate(), ErrInvalidInput)
}
