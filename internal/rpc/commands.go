package rpc

// Command names accepted by the service at POST /rpc/{command}.
const (
	CmdListOrders               = "list_orders"
	CmdDeleteOrder              = "delete_order"
	CmdSetOrderDone             = "set_order_done"
	CmdGetOpenedOrders          = "get_opened_orders"
	CmdOpenOrder                = "open_order"
	CmdRemoveOpenedOrder        = "remove_opened_order"
	CmdGetOrder                 = "get_order"
	CmdSaveOrder                = "save_order"
	CmdUpdateOrder              = "update_order"
	CmdGetThemeColors           = "get_theme_colors"
	CmdSaveThemeColors          = "save_theme_colors"
	CmdGetConfettiPalette       = "get_confetti_palette"
	CmdGetSetting               = "get_setting"
	CmdSetSetting               = "set_setting"
	CmdListDeliveryCompanies    = "list_delivery_companies"
	CmdAddDeliveryCompany       = "add_delivery_company"
	CmdSetDeliveryCompanyActive = "set_delivery_company_active"
	CmdRenameDeliveryCompany    = "rename_delivery_company"
	CmdSearchArticleNames       = "search_article_names"
	CmdLatestDescription        = "get_latest_description_for_article"
	CmdGetDashboardData         = "get_dashboard_data"
)

// Setting keys understood by get_setting / set_setting.
const (
	SettingTheme                  = "theme"
	SettingDefaultCity            = "defaultCity"
	SettingConfettiOnDone         = "confettiOnDone"
	SettingDefaultDeliveryCompany = "defaultDeliveryCompany"
)

// Argument payloads. Field names are the camelCase names the service expects.

type NoArgs struct{}

type IDArgs struct {
	ID int64 `json:"id"`
}

type SetDoneArgs struct {
	ID   int64 `json:"id"`
	Done bool  `json:"done"`
}

type SaveOrderArgs struct {
	Order OrderInput `json:"order"`
}

type UpdateOrderArgs struct {
	ID    int64      `json:"id"`
	Order OrderInput `json:"order"`
}

type SaveThemeArgs struct {
	Payload ThemeDTO `json:"payload"`
}

type GetSettingArgs struct {
	Key string `json:"key"`
}

type SetSettingArgs struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type AddCompanyArgs struct {
	Name string `json:"name"`
}

type SetCompanyActiveArgs struct {
	ID     int64 `json:"id"`
	Active bool  `json:"active"`
}

type RenameCompanyArgs struct {
	ID      int64  `json:"id"`
	NewName string `json:"newName"`
}

type SearchArticlesArgs struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type LatestDescriptionArgs struct {
	Name string `json:"name"`
}

// Envelope is the response body of every command.
type Envelope struct {
	Result interface{} `json:"result"`
	Error  string      `json:"error,omitempty"`
}
