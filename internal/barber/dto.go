// AngelaMos | 2026
// dto.go

package barber

import (
	"time"
)

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=128"`
}

type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      BarberResponse `json:"user"`
}

type BarberResponse struct {
	ID              string    `json:"id"`
	OwnerName       string    `json:"ownerName"`
	BusinessName    string    `json:"businessName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	City            string    `json:"city,omitempty"`
	State           string    `json:"state,omitempty"`
	LicenseActive   bool      `json:"licenseActive"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

type PendingBarberResponse struct {
	ID           string    `json:"id"`
	OwnerName    string    `json:"ownerName"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
}

func ToBarberResponse(b *Barber) BarberResponse {
	return BarberResponse{
		ID:            b.ID,
		OwnerName:     b.OwnerName,
		BusinessName:  b.BusinessName,
		Email:         b.Email,
		Phone:         b.Phone,
		City:          b.City,
		State:         b.State,
		LicenseActive: b.HasLicense(),
		CreatedAt:     b.CreatedAt,
	}
}

func ToPendingResponseList(barbers []Barber) []PendingBarberResponse {
	out := make([]PendingBarberResponse, 0, len(barbers))
	for _, b := range barbers {
		out = append(out, PendingBarberResponse{
			ID:           b.ID,
			OwnerName:    b.OwnerName,
			BusinessName: b.BusinessName,
			Email:        b.Email,
			CreatedAt:    b.CreatedAt,
		})
	}
	return out
}
