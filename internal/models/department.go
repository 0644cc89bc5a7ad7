package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Department struct {
	ID              primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name            string              `bson:"name" json:"name" validate:"required"`
	Code            string              `bson:"code" json:"code" validate:"required"`
	HOD             *primitive.ObjectID `bson:"hod,omitempty" json:"hod,omitempty"`
	Description     string              `bson:"description,omitempty" json:"description,omitempty"`
	EstablishedDate *time.Time          `bson:"establishedDate,omitempty" json:"establishedDate,omitempty"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time           `bson:"updatedAt" json:"updatedAt"`
}

type DepartmentInput struct {
	Name            *string    `json:"name" validate:"required,min=1"`
	Code            *string    `json:"code" validate:"required,min=1"`
	HOD             *string    `json:"hod" validate:"omitempty,objectid"`
	Description     *string    `json:"description"`
	EstablishedDate *time.Time `json:"establishedDate"`
}

// Normalize trims the text fields so blank values fail validation.
func (in *DepartmentInput) Normalize() {
	in.Name = trimmed(in.Name)
	in.Code = trimmed(in.Code)
	in.HOD = trimmed(in.HOD)
	in.Description = trimmed(in.Description)
}

// Apply copies the fields present in the input onto d. Codes are stored upper case.
// An empty hod string clears the head of department.
func (in DepartmentInput) Apply(d *Department) {
	if in.Name != nil {
		d.Name = strings.TrimSpace(*in.Name)
	}
	if in.Code != nil {
		d.Code = strings.ToUpper(strings.TrimSpace(*in.Code))
	}
	if in.HOD != nil {
		if *in.HOD == "" {
			d.HOD = nil
		} else if id, err := primitive.ObjectIDFromHex(*in.HOD); err == nil {
			d.HOD = &id
		}
	}
	if in.Description != nil {
		d.Description = *in.Description
	}
	if in.EstablishedDate != nil {
		t := in.EstablishedDate.UTC()
		d.EstablishedDate = &t
	}
}

// DepartmentInputOf returns a complete input describing d.
func DepartmentInputOf(d Department) DepartmentInput {
	in := DepartmentInput{
		Name:            &d.Name,
		Code:            &d.Code,
		Description:     &d.Description,
		EstablishedDate: d.EstablishedDate,
	}
	if d.HOD != nil {
		hod := d.HOD.Hex()
		in.HOD = &hod
	}
	return in
}

// Overlay returns in with every field present in patch replaced.
func (in DepartmentInput) Overlay(patch DepartmentInput) DepartmentInput {
	if patch.Name != nil {
		in.Name = patch.Name
	}
	if patch.Code != nil {
		in.Code = patch.Code
	}
	if patch.HOD != nil {
		in.HOD = patch.HOD
	}
	if patch.Description != nil {
		in.Description = patch.Description
	}
	if patch.EstablishedDate != nil {
		in.EstablishedDate = patch.EstablishedDate
	}
	return in
}
