package shared

import "time"

// RoleAdmin is the only role a profile can carry.
const RoleAdmin = "admin"

type Tool struct {
	ID                   string  `json:"_id,omitempty" bson:"_id,omitempty"`
	Name                 string  `json:"name" bson:"name" validate:"notblank"`
	Description          string  `json:"description" bson:"description"`
	Price                float64 `json:"price" bson:"price" validate:"gte=0"`
	MinimumOrderQuantity int     `json:"minimumOrderQuantity" bson:"minimumOrderQuantity" validate:"gte=0"`
	Available            int     `json:"available" bson:"available" validate:"gte=0"`
	ImageURL             string  `json:"imageUrl" bson:"imageUrl"`
}

type Order struct {
	ID            string  `json:"_id,omitempty" bson:"_id,omitempty"`
	ToolID        string  `json:"toolId" bson:"toolId"`
	ToolName      string  `json:"toolName,omitempty" bson:"toolName,omitempty"`
	Email         string  `json:"email" bson:"email"`
	Quantity      int     `json:"quantity" bson:"quantity"`
	TotalPrice    float64 `json:"totalPrice" bson:"totalPrice"`
	Paid          bool    `json:"paid" bson:"paid"`
	TransactionID string  `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
}

// CreateOrderRequest is what a customer may submit. Paid and
// TransactionID are absent on purpose: only payment confirmation sets them.
type CreateOrderRequest struct {
	ToolID     string  `json:"toolId" validate:"notblank"`
	ToolName   string  `json:"toolName,omitempty"`
	Email      string  `json:"email" validate:"required,email"`
	Quantity   int     `json:"quantity" validate:"required,min=1"`
	TotalPrice float64 `json:"totalPrice" validate:"gte=0"`
}

type Review struct {
	ID     string `json:"_id,omitempty" bson:"_id,omitempty"`
	Email  string `json:"email" bson:"email" validate:"required,email"`
	Name   string `json:"name,omitempty" bson:"name,omitempty"`
	Text   string `json:"text" bson:"text"`
	Rating int    `json:"rating" bson:"rating" validate:"min=1,max=5"`
}

type UserProfile struct {
	ID        string `json:"_id,omitempty" bson:"_id,omitempty"`
	Email     string `json:"email" bson:"email"`
	Location  string `json:"location,omitempty" bson:"location,omitempty"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	Education string `json:"education,omitempty" bson:"education,omitempty"`
	LinkedIn  string `json:"linkedIn,omitempty" bson:"linkedIn,omitempty"`
	Role      string `json:"role,omitempty" bson:"role,omitempty"`
}

func (u UserProfile) IsAdmin() bool { return u.Role == RoleAdmin }

type PaymentRecord struct {
	ID            string    `json:"_id,omitempty" bson:"_id,omitempty"`
	TransactionID string    `json:"transactionId" bson:"transactionId"`
	OrderID       string    `json:"orderId" bson:"orderId"`
	Amount        float64   `json:"amount" bson:"amount"`
	Email         string    `json:"email" bson:"email"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
}

// ConfirmPaymentRequest is the body of PATCH /orders/{id}.
type ConfirmPaymentRequest struct {
	OrderID       string  `json:"orderId,omitempty"`
	TransactionID string  `json:"transactionId" validate:"notblank"`
	Amount        float64 `json:"amount,omitempty" validate:"gte=0"`
}

type Suggestion struct {
	ID    string `json:"_id,omitempty" bson:"_id,omitempty"`
	Text  string `json:"text" bson:"text" validate:"notblank"`
	Email string `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
}

// InsertResult, UpdateResult and DeleteResult acknowledge store writes
// and are returned to callers as-is.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type UpdateResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type UpsertProfileResponse struct {
	Result UpdateResult `json:"result"`
	Token  string       `json:"token"`
}

type AdminStatusResponse struct {
	Admin bool `json:"admin"`
}

type PaymentIntentRequest struct {
	Price float64 `json:"price" validate:"gt=0"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
