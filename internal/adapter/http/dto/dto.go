package dto

// Amounts travel as strings and are parsed into decimals at the boundary.
// JSON numbers round-trip through float64 in Go, which is exactly the drift
// the ledger's decimal math exists to avoid.

// UnitOperationRequest is the request body for a single-entity unit
// operation (AI units, mille, wallet balance).
type UnitOperationRequest struct {
	Collection string `json:"collection" binding:"required,oneof=users brands wallets"`
	EntityID   string `json:"entity_id" binding:"required,max=128,safe_id"`
	Field      string `json:"field" binding:"required,oneof=ai_units mille children_mille revenue balance"`
	Amount     string `json:"amount" binding:"required"`
	Direction  string `json:"direction" binding:"required,oneof=credit debit"`
}

// MilleTransferRequest is the request body for a two-leg mille operation.
type MilleTransferRequest struct {
	UserID    string `json:"user_id" binding:"required,max=128,safe_id"`
	BrandID   string `json:"brand_id" binding:"required,max=128,safe_id"`
	Amount    string `json:"amount" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=credit debit"`
}

// ProvisionWalletRequest is the request body for wallet provisioning.
type ProvisionWalletRequest struct {
	BrandID    string `json:"brand_id" binding:"required,max=128,safe_id"`
	WalletType string `json:"wallet_type" binding:"required,max=32,safe_id"`
	UserID     string `json:"user_id" binding:"required,max=128,safe_id"`
	Currency   string `json:"currency" binding:"required,len=3,alpha"`
}

// DepositTx is one transaction inside a deposit webhook delivery.
type DepositTx struct {
	TxID          string `json:"txid" binding:"required,max=128"`
	Value         string `json:"value" binding:"required"`
	Confirmations int    `json:"confirmations" binding:"min=0"`
}

// DepositWebhookRequest is the chain watcher's delivery payload.
type DepositWebhookRequest struct {
	Address      string      `json:"address" binding:"required,max=128"`
	Transactions []DepositTx `json:"transactions" binding:"required,min=1,dive"`
}

// Rule is one revenue rule supplied with a settlement event.
type Rule struct {
	Name          string `json:"name" binding:"required,max=64"`
	Value         string `json:"value" binding:"required"`
	Direction     string `json:"direction" binding:"required,oneof=increase decrease"`
	ServiceCharge string `json:"service_charge,omitempty"`
}

// HierarchyLevel is one brand in the ownership chain.
type HierarchyLevel struct {
	BrandID  string `json:"brand_id" binding:"required,max=128,safe_id"`
	Currency string `json:"currency" binding:"required,len=3,alpha"`
	Rate     string `json:"rate" binding:"required"`
}

// Hierarchy is the transacting brand's ownership chain. Parent and master
// may repeat the brand itself.
type Hierarchy struct {
	Brand  HierarchyLevel `json:"brand" binding:"required"`
	Parent HierarchyLevel `json:"parent" binding:"required"`
	Master HierarchyLevel `json:"master" binding:"required"`
}

// SettlementRequest is the request body for a settlement run.
type SettlementRequest struct {
	Kind         string    `json:"kind" binding:"required,oneof=order_paid unit_purchase utility_topup"`
	UserID       string    `json:"user_id" binding:"required,max=128,safe_id"`
	Value        string    `json:"value" binding:"required"`
	Currency     string    `json:"currency" binding:"required,len=3,alpha"`
	SellerProfit string    `json:"seller_profit,omitempty"`
	RuleName     string    `json:"rule_name,omitempty"`
	Rules        []Rule    `json:"rules" binding:"dive"`
	Hierarchy    Hierarchy `json:"hierarchy" binding:"required"`
}

// WalletResponse is the caller-facing projection of a provisioned wallet.
// Key material never appears here.
type WalletResponse struct {
	ID                  string `json:"id"`
	BrandID             string `json:"brand_id"`
	UserID              string `json:"user_id"`
	WalletType          string `json:"wallet_type"`
	Currency            string `json:"currency"`
	Address             string `json:"address"`
	LegacyAddress       string `json:"legacy_address"`
	NestedAddress       string `json:"nested_address"`
	PublicKey           string `json:"public_key"`
	WebhookRegistration string `json:"webhook_registration"`
	CreatedAt           string `json:"created_at"`
}
