// Lenscape - Security Camera Distribution Storefront
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lenscape

package models

import "time"

// ContactMessage is a message submitted through the public contact form.
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Message   string    `json:"message"`
	ProductID string    `json:"product_id,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactInput is the public contact form body.
type ContactInput struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"required,email,max=254"`
	Phone     string `json:"phone" validate:"max=40"`
	Company   string `json:"company" validate:"max=160"`
	Subject   string `json:"subject" validate:"max=200"`
	Message   string `json:"message" validate:"required,max=5000"`
	ProductID string `json:"product_id" validate:"omitempty,uuid4"`
}

// Subscriber is a newsletter subscription.
type Subscriber struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Source    string    `json:"source,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// SubscribeInput is the public newsletter signup body.
type SubscribeInput struct {
	Email  string `json:"email" validate:"required,email,max=254"`
	Source string `json:"source" validate:"max=60"`
}

// DashboardStats are the counts shown on the admin dashboard.
type DashboardStats struct {
	Categories     int `json:"categories"`
	Products       int `json:"products"`
	Contacts       int `json:"contacts"`
	UnreadContacts int `json:"unread_contacts"`
	Subscribers    int `json:"subscribers"`
}
