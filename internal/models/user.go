package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Channel is the transport used for outgoing notifications.
type Channel string

const (
	ChannelEmail     Channel = "email"
	ChannelMessaging Channel = "messaging"
)

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelMessaging
}

// User represents a storefront account. ResetCode, ResetCodeExpiry and ResetAttempts are set and
// cleared together.
type User struct {
	ID                string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Email             string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password          string     `json:"-" gorm:"type:varchar(255);not null"`
	FirstName         string     `json:"first_name" gorm:"type:varchar(100)"`
	LastName          string     `json:"last_name" gorm:"type:varchar(100)"`
	Phone             string     `json:"phone" gorm:"type:varchar(32)"`
	NotificationEmail string     `json:"notification_email" gorm:"type:varchar(255)"`
	WhatsAppPhone     string     `json:"whatsapp_phone" gorm:"type:varchar(32)"`
	PreferredChannel  Channel    `json:"preferred_channel" gorm:"type:varchar(20);not null;default:'email'"`
	ResetCode         *string    `json:"-" gorm:"type:varchar(255)"`
	ResetCodeExpiry   *time.Time `json:"-"`
	ResetAttempts     int        `json:"-" gorm:"not null;default:0"`
	Role              Role       `json:"role" gorm:"type:varchar(10);not null;default:'user'"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// FullName joins first and last name, falling back to the email.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// Destination picks where a notification on channel c is delivered.
func (u *User) Destination(c Channel) string {
	if c == ChannelMessaging {
		if u.WhatsAppPhone != "" {
			return u.WhatsAppPhone
		}
		return u.Phone
	}
	if u.NotificationEmail != "" {
		return u.NotificationEmail
	}
	return u.Email
}
