// Package domain defines the persistence models for customers, messages,
// the bot configuration, the product catalog, and operator accounts. These
// types are mapped with GORM and form the core data layer of the messaging
// relay.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Conversation modes. A customer in ModeBot is answered by the assistant;
// a customer in ModeHuman is handled by an operator and the automated reply
// path stays silent.
const (
	ModeBot   = "bot"
	ModeHuman = "humano"
)

// Message author roles as stored in the log. The engine-facing vocabulary
// ("user"/"model") is derived from these in the history assembly, never here.
const (
	RoleCustomer  = "customer"
	RoleAssistant = "assistant"
	RoleOperator  = "operator"
)

// Operator roles for the admin console.
const (
	OperatorRoleAdmin = "admin"
	OperatorRoleAgent = "agent"
)

// Customer represents an end user messaging the system from a stable
// WhatsApp address. Customers are created implicitly on first contact and
// default to automated handling.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Phone: unique destination address (e.g. "whatsapp:+5511999999999");
//     the uniqueness constraint is what makes concurrent first contact safe.
//   - Name: display name, defaults to a placeholder until an operator or the
//     webhook profile fills it in.
//   - Mode: "bot" or "humano"; only operator actions flip it.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Customer struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Phone     string    `json:"phone"      gorm:"type:varchar(64);not null;uniqueIndex:ux_customer_phone"`
	Name      string    `json:"name"       gorm:"type:varchar(100);not null;default:'Desconhecido'"`
	Mode      string    `json:"mode"       gorm:"type:varchar(20);not null;default:'bot';check:mode IN ('bot','humano')"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Message is a single utterance in a customer's conversation log. The log is
// append-only: no core operation mutates or deletes a message, and rows are
// cascade-deleted only when the owning customer is removed by an admin.
//
// MessageSID holds the transport-assigned message id for inbound webhook
// messages; its uniqueness (when set) is used to drop webhook redeliveries.
type Message struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	CustomerID string    `json:"customer_id" gorm:"type:char(36);not null;index:idx_customer_msgs,priority:1"`
	Role       string    `json:"role"        gorm:"type:varchar(16);not null;check:role IN ('customer','assistant','operator')"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	MessageSID *string   `json:"-"           gorm:"type:varchar(64);uniqueIndex:ux_message_sid"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_customer_msgs,priority:2"`

	// Customer is the owning conversation partner. Messages are
	// cascade-deleted if their customer is removed.
	Customer Customer `json:"-" gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// BotConfigID is the fixed primary key of the singleton configuration row.
const BotConfigID = 1

// BotConfig is the singleton bot configuration: identity, personality, and
// the consumable credit balance that gates AI usage.
//
// CreditBalance is a pointer on purpose: a NULL balance means the ledger was
// never initialized, which the credit check treats as zero and fails closed.
type BotConfig struct {
	ID            int       `json:"id"             gorm:"primaryKey"`
	BotName       string    `json:"bot_name"       gorm:"type:varchar(50);not null;default:'Assistente'"`
	CompanyName   string    `json:"company_name"   gorm:"type:varchar(100);not null;default:'Minha Empresa'"`
	Personality   string    `json:"personality"    gorm:"type:text;not null"`
	BusinessRules string    `json:"business_rules" gorm:"type:text"`
	CreditBalance *int64    `json:"credit_balance"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for BotConfig.
func (BotConfig) TableName() string { return "bot_configs" }

// Product is a catalog item contributing to the assembled system prompt.
// Price is stored as free-form text, matching how merchants enter it
// ("R$ 49,90", "sob consulta").
type Product struct {
	ID          string         `json:"id"          gorm:"type:char(36);primaryKey"`
	Name        string         `json:"name"        gorm:"type:varchar(100);not null"`
	Description string         `json:"description" gorm:"type:text;not null"`
	Price       string         `json:"price"       gorm:"type:varchar(50)"`
	Active      bool           `json:"active"      gorm:"not null;default:true;index"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"           gorm:"index"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }

// Operator is a human user of the admin console. PasswordHash is an opaque
// bcrypt hash; generation happens at account creation, comparison at login.
type Operator struct {
	ID           string    `json:"id"       gorm:"type:char(36);primaryKey"`
	Username     string    `json:"username" gorm:"type:varchar(80);not null;uniqueIndex"`
	PasswordHash string    `json:"-"        gorm:"type:varchar(255);not null"`
	Role         string    `json:"role"     gorm:"type:varchar(20);not null;default:'agent';check:role IN ('admin','agent')"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for Operator.
func (Operator) TableName() string { return "operators" }
