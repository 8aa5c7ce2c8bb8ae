package domain

import (
	"encoding/json"
	"time"
)

// Measurements holds tape-measure readings in centimetres. A nil field is
// unknown; in a patch it means "leave unchanged". Readings are never negative.
type Measurements struct {
	Chest      *float64 `json:"chest" validate:"omitempty,gte=0"`
	UpperWaist *float64 `json:"upperWaist" validate:"omitempty,gte=0"`
	MidWaist   *float64 `json:"midWaist" validate:"omitempty,gte=0"`
	LowerWaist *float64 `json:"lowerWaist" validate:"omitempty,gte=0"`
	RightThigh *float64 `json:"rightThigh" validate:"omitempty,gte=0"`
	LeftThigh  *float64 `json:"leftThigh" validate:"omitempty,gte=0"`
	RightArm   *float64 `json:"rightArm" validate:"omitempty,gte=0"`
	LeftArm    *float64 `json:"leftArm" validate:"omitempty,gte=0"`
}

// Apply copies every non-nil field of p onto m.
func (m *Measurements) Apply(p Measurements) {
	setFloat(&m.Chest, p.Chest)
	setFloat(&m.UpperWaist, p.UpperWaist)
	setFloat(&m.MidWaist, p.MidWaist)
	setFloat(&m.LowerWaist, p.LowerWaist)
	setFloat(&m.RightThigh, p.RightThigh)
	setFloat(&m.LeftThigh, p.LeftThigh)
	setFloat(&m.RightArm, p.RightArm)
	setFloat(&m.LeftArm, p.LeftArm)
}

// BCA is a body composition analysis reading.
type BCA struct {
	Weight          *float64 `json:"weight" validate:"omitempty,gte=0"`
	BMI             *float64 `json:"bmi" validate:"omitempty,gte=0"`
	BodyFat         *float64 `json:"bodyFat" validate:"omitempty,gte=0"`
	MuscleRate      *float64 `json:"muscleRate" validate:"omitempty,gte=0"`
	SubcutaneousFat *float64 `json:"subcutaneousFat" validate:"omitempty,gte=0"`
	VisceralFat     *float64 `json:"visceralFat" validate:"omitempty,gte=0"`
	BodyAge         *int     `json:"bodyAge" validate:"omitempty,gte=0"`
	BMR             *float64 `json:"bmr" validate:"omitempty,gte=0"`
	SkeletalMass    *float64 `json:"skeletalMass" validate:"omitempty,gte=0"`
	MuscleMass      *float64 `json:"muscleMass" validate:"omitempty,gte=0"`
	BoneMass        *float64 `json:"boneMass" validate:"omitempty,gte=0"`
	Protein         *float64 `json:"protein" validate:"omitempty,gte=0"`
}

// Apply copies every non-nil field of p onto b.
func (b *BCA) Apply(p BCA) {
	setFloat(&b.Weight, p.Weight)
	setFloat(&b.BMI, p.BMI)
	setFloat(&b.BodyFat, p.BodyFat)
	setFloat(&b.MuscleRate, p.MuscleRate)
	setFloat(&b.SubcutaneousFat, p.SubcutaneousFat)
	setFloat(&b.VisceralFat, p.VisceralFat)
	if p.BodyAge != nil {
		v := *p.BodyAge
		b.BodyAge = &v
	}
	setFloat(&b.BMR, p.BMR)
	setFloat(&b.SkeletalMass, p.SkeletalMass)
	setFloat(&b.MuscleMass, p.MuscleMass)
	setFloat(&b.BoneMass, p.BoneMass)
	setFloat(&b.Protein, p.Protein)
}

// PersonalDetails is a partial update of the user's basic profile.
type PersonalDetails struct {
	Name         *string  `json:"name"`
	MobileNumber *string  `json:"mobileNumber"`
	Height       *float64 `json:"height" validate:"omitempty,gte=0"`
	Weight       *float64 `json:"weight" validate:"omitempty,gte=0"`
}

// ProfileUpdate groups the three profile sections; nil sections are skipped.
type ProfileUpdate struct {
	PersonalDetails *PersonalDetails `json:"personalDetails"`
	Measurements    *Measurements    `json:"measurements"`
	BCA             *BCA             `json:"bca"`
}

func setFloat(dst **float64, src *float64) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

// User represents a gym member, trainer or administrator.
type User struct {
	ID           uint         `json:"id"`
	Email        string       `json:"email,omitempty"`
	Phone        string       `json:"phoneNumber,omitempty"`
	Role         Role         `json:"role"`
	Name         string       `json:"name"`
	MobileNumber string       `json:"mobileNumber,omitempty"`
	Height       *float64     `json:"height"`
	Weight       *float64     `json:"weight"`
	Measurements Measurements `json:"measurements"`
	BCA          BCA          `json:"bca"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// ApplyPersonal copies the supplied personal details onto u.
func (u *User) ApplyPersonal(p PersonalDetails) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.MobileNumber != nil {
		u.MobileNumber = *p.MobileNumber
	}
	setFloat(&u.Height, p.Height)
	setFloat(&u.Weight, p.Weight)
}

// MarshalJSON adds the derived isAdmin and isTrainer flags clients rely on.
func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return json.Marshal(struct {
		plain
		IsAdmin   bool `json:"isAdmin"`
		IsTrainer bool `json:"isTrainer"`
	}{plain(u), u.Role.IsAdmin(), u.Role.IsTrainer()})
}

// OTP is a one-time passcode issued to an identifier. Only the hash of
// the code is kept.
type OTP struct {
	ID         uint
	Identifier string
	CodeHash   string
	IsVerified bool
	Attempts   int
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the passcode is past its expiry at now.
func (o *OTP) Expired(now time.Time) bool { return now.After(o.ExpiresAt) }

// OTPIssue is what the caller learns about a freshly issued passcode.
type OTPIssue struct {
	Identifier Identifier
	ExpiresAt  time.Time
	Delivered  bool
}

// AuthResult is the outcome of a successful login or token refresh.
type AuthResult struct {
	User         *User
	AccessToken  string
	RefreshToken string
	IsNewUser    bool
}
