// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package fieldtype defines the vocabulary of form field types and the
// matcher list names that group them.
package fieldtype

import "strings"

// FieldType identifies the semantic kind of a form input.
type FieldType string

const (
	Email              FieldType = "email"
	Password           FieldType = "password"
	Username           FieldType = "username"
	CardName           FieldType = "cardName"
	CardNumber         FieldType = "cardNumber"
	CardSecurityCode   FieldType = "cardSecurityCode"
	ExpirationMonth    FieldType = "expirationMonth"
	ExpirationYear     FieldType = "expirationYear"
	Expiration         FieldType = "expiration"
	FirstName          FieldType = "firstName"
	MiddleName         FieldType = "middleName"
	LastName           FieldType = "lastName"
	FullName           FieldType = "fullName"
	Phone              FieldType = "phone"
	AddressStreet      FieldType = "addressStreet"
	AddressStreet2     FieldType = "addressStreet2"
	AddressCity        FieldType = "addressCity"
	AddressProvince    FieldType = "addressProvince"
	AddressPostalCode  FieldType = "addressPostalCode"
	AddressCountryCode FieldType = "addressCountryCode"
	BirthdayDay        FieldType = "birthdayDay"
	BirthdayMonth      FieldType = "birthdayMonth"
	BirthdayYear       FieldType = "birthdayYear"
)

var all = []FieldType{
	Email, Password, Username,
	CardName, CardNumber, CardSecurityCode, ExpirationMonth, ExpirationYear, Expiration,
	FirstName, MiddleName, LastName, FullName, Phone,
	AddressStreet, AddressStreet2, AddressCity, AddressProvince, AddressPostalCode, AddressCountryCode,
	BirthdayDay, BirthdayMonth, BirthdayYear,
}

// All returns every known field type in declaration order.
func All() []FieldType {
	out := make([]FieldType, len(all))
	copy(out, all)
	return out
}

// Known reports whether t is part of the vocabulary.
func (t FieldType) Known() bool {
	for _, k := range all {
		if k == t {
			return true
		}
	}
	return false
}

func (t FieldType) String() string { return string(t) }

// Matcher list names.
const (
	ListCC       = "cc"
	ListID       = "id"
	ListPassword = "password"
	ListUsername = "username"
	ListEmail    = "email"
)

// Lists returns the list names the engine consults, in evaluation order.
func Lists() []string {
	return []string{ListCC, ListPassword, ListEmail, ListUsername, ListID}
}

// MainType is the first segment of an inferred type label.
type MainType string

const (
	Credentials MainType = "credentials"
	Identities  MainType = "identities"
	CreditCard  MainType = "creditCard"
	Unknown     MainType = "unknown"
)

// Label values produced outside the "<main>.<field>" scheme.
const (
	LabelUnknown      = "unknown"
	LabelPassword     = "credentials.password"
	LabelUsername     = "credentials.username"
	LabelEmailAddress = "identities.emailAddress"
)

// EmailAddress is the identities subtype reported for email fields.
const EmailAddress = "emailAddress"

// AttrInputType is the element attribute that carries a preset or
// previously inferred type label.
const AttrInputType = "data-ddg-inputtype"

// Label joins a main type and a subtype into a type label.
func Label(main MainType, sub FieldType) string {
	return string(main) + "." + string(sub)
}

// MainTypeOf returns the main type of a label, or "unknown" when the label
// is empty.
func MainTypeOf(label string) MainType {
	if label == "" {
		return Unknown
	}
	main, _, _ := strings.Cut(label, ".")
	if main == "" {
		return Unknown
	}
	return MainType(main)
}

// SubtypeOf returns the subtype of a label. A label without a dot is its
// own subtype; an empty label yields "unknown".
func SubtypeOf(label string) string {
	if label == "" {
		return LabelUnknown
	}
	main, sub, found := strings.Cut(label, ".")
	if found && sub != "" {
		return sub
	}
	if main != "" {
		return main
	}
	return LabelUnknown
}

// Descriptor describes how an autofill layer consumes a main type.
type Descriptor struct {
	Type           MainType `json:"type"`
	DataType       string   `json:"data_type"`
	AutofillMethod string   `json:"autofill_method"`
}

var descriptors = map[MainType]Descriptor{
	Credentials: {Type: Credentials, DataType: "Credentials", AutofillMethod: "getAutofillCredentials"},
	CreditCard:  {Type: CreditCard, DataType: "CreditCards", AutofillMethod: "getAutofillCreditCard"},
	Identities:  {Type: Identities, DataType: "Identities", AutofillMethod: "getAutofillIdentity"},
	Unknown:     {Type: Unknown},
}

// DescriptorFor returns the descriptor of the label's main type. Unknown
// main types map to the "unknown" descriptor.
func DescriptorFor(label string) Descriptor {
	if d, ok := descriptors[MainTypeOf(label)]; ok {
		return d
	}
	return descriptors[Unknown]
}
