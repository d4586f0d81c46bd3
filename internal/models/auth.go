package models

// RequestOTPRequest defines the structure for OTP request calls
type RequestOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Purpose     string `json:"purpose" binding:"required,oneof=register login"`
}

// VerifyOTPRequest defines the structure for OTP verification calls
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Purpose     string `json:"purpose" binding:"required,oneof=register login"`
}

// RefreshRequest defines the structure for token refresh calls
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// UpdateProfileRequest defines the structure for profile updates
type UpdateProfileRequest struct {
	NationalID string `json:"nationalId"`
}

// WinnerInfoRequest carries the delivery details a winner must submit
// before the completion deadline
type WinnerInfoRequest struct {
	FullName       string `json:"fullName" binding:"required"`
	NationalID     string `json:"nationalId" binding:"required"`
	ReceivedDate   string `json:"receivedDate" binding:"required"`
	SelectedPeriod string `json:"selectedPeriod" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required"`
}

// TokenPair holds an issued access/refresh token pair
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
