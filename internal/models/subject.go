package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Subject is a catalog course offered by a department in a given semester.
type Subject struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code          string             `bson:"code" json:"code" validate:"required"`
	Name          string             `bson:"name" json:"name" validate:"required"`
	Department    primitive.ObjectID `bson:"department" json:"department" validate:"required"`
	Semester      int                `bson:"semester" json:"semester" validate:"min=1,max=8"`
	Credits       int                `bson:"credits" json:"credits" validate:"min=1,max=5"`
	HoursPerWeek  int                `bson:"hoursPerWeek" json:"hoursPerWeek" validate:"min=1,max=6"`
	IsLab         bool               `bson:"isLab" json:"isLab"`
	ElectiveGroup string             `bson:"electiveGroup,omitempty" json:"electiveGroup,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SubjectInput is the create/update payload. Pointer fields distinguish
// "absent" from "zero" so that a missing semester reports required while
// semester=0 reports a range violation.
type SubjectInput struct {
	Code          *string `json:"code" validate:"required,min=1"`
	Name          *string `json:"name" validate:"required,min=1"`
	Department    *string `json:"department" validate:"required,objectid"`
	Semester      *int    `json:"semester" validate:"required,min=1,max=8"`
	Credits       *int    `json:"credits" validate:"required,min=1,max=5"`
	HoursPerWeek  *int    `json:"hoursPerWeek" validate:"required,min=1,max=6"`
	IsLab         *bool   `json:"isLab"`
	ElectiveGroup *string `json:"electiveGroup"`
}

// Normalize trims the text fields so blank values fail validation.
func (in *SubjectInput) Normalize() {
	in.Code = trimmed(in.Code)
	in.Name = trimmed(in.Name)
	in.Department = trimmed(in.Department)
	in.ElectiveGroup = trimmed(in.ElectiveGroup)
}

// Apply copies the fields present in the input onto s.
func (in SubjectInput) Apply(s *Subject) {
	if in.Code != nil {
		s.Code = *in.Code
	}
	if in.Name != nil {
		s.Name = *in.Name
	}
	if in.Department != nil {
		if id, err := primitive.ObjectIDFromHex(*in.Department); err == nil {
			s.Department = id
		} else {
			s.Department = primitive.NilObjectID
		}
	}
	if in.Semester != nil {
		s.Semester = *in.Semester
	}
	if in.Credits != nil {
		s.Credits = *in.Credits
	}
	if in.HoursPerWeek != nil {
		s.HoursPerWeek = *in.HoursPerWeek
	}
	if in.IsLab != nil {
		s.IsLab = *in.IsLab
	}
	if in.ElectiveGroup != nil {
		s.ElectiveGroup = *in.ElectiveGroup
	}
}

// SubjectFilter narrows subject listings. Zero values are ignored.
type SubjectFilter struct {
	Department    *primitive.ObjectID
	Semester      int
	IsLab         *bool
	ElectiveGroup string
	Limit         int
	Offset        int
}

// SubjectInputOf returns a complete input describing s.
func SubjectInputOf(s Subject) SubjectInput {
	dept := s.Department.Hex()
	isLab := s.IsLab
	group := s.ElectiveGroup
	return SubjectInput{
		Code:          &s.Code,
		Name:          &s.Name,
		Department:    &dept,
		Semester:      &s.Semester,
		Credits:       &s.Credits,
		HoursPerWeek:  &s.HoursPerWeek,
		IsLab:         &isLab,
		ElectiveGroup: &group,
	}
}

// Overlay returns in with every field present in patch replaced.
func (in SubjectInput) Overlay(patch SubjectInput) SubjectInput {
	if patch.Code != nil {
		in.Code = patch.Code
	}
	if patch.Name != nil {
		in.Name = patch.Name
	}
	if patch.Department != nil {
		in.Department = patch.Department
	}
	if patch.Semester != nil {
		in.Semester = patch.Semester
	}
	if patch.Credits != nil {
		in.Credits = patch.Credits
	}
	if patch.HoursPerWeek != nil {
		in.HoursPerWeek = patch.HoursPerWeek
	}
	if patch.IsLab != nil {
		in.IsLab = patch.IsLab
	}
	if patch.ElectiveGroup != nil {
		in.ElectiveGroup = patch.ElectiveGroup
	}
	return in
}
