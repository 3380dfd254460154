package constants

// 销售账号层级
const (
	SalesTierPrimary   = "primary"
	SalesTierSecondary = "secondary"
)

// 订单状态常量
const (
	OrderStatusPendingPayment   = "pending_payment"
	OrderStatusConfirmedPayment = "confirmed_payment"
	OrderStatusPendingConfig    = "pending_config"
	OrderStatusConfirmedConfig  = "confirmed_config"
	OrderStatusRejected         = "rejected"
)

// 结算币种
const (
	CurrencyUSD = "USD"
	CurrencyCNY = "CNY"
)

// 排除名单作用域
const (
	ExclusionScopeDisplay   = "display"
	ExclusionScopePermanent = "permanent"
)

// 排除目标类型
const (
	ExclusionTargetSalesCode = "sales_code"
	ExclusionTargetWechat    = "wechat"
)

// 统计口径
const (
	PolicyDisplay    = "display"
	PolicyStatistics = "statistics"
)

// 结算状态
const (
	SettlementStatusPendingPayout = "pending_payout"
	SettlementStatusSettled       = "settled"
	SettlementStatusOverpaid      = "overpaid"
)

// 负向团队佣金处理策略
const (
	NegativeOverridePassthrough = "passthrough"
	NegativeOverrideClamp       = "clamp"
)

// 汇总告警代码
const (
	WarningMissingAccount      = "missing_account"
	WarningMissingParent       = "missing_parent"
	WarningNegativeOverride    = "negative_override"
	WarningUnsupportedCurrency = "unsupported_currency"
)

// 异步队列
const (
	QueueDefault            = "default"
	TaskSettlementRecompute = "settlement:recompute"
)

// 分布式锁 key 前缀
const (
	LockKeySales     = "lock:sales"
	LockKeyExclusion = "lock:exclusion"
)
