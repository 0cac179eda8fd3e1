package domain

import "errors"

// ErrInvalidPreference is returned when a submission violates the catalog or the
// ranking/rejection partition. Validators wrap it with the specific violations.
var ErrInvalidPreference = errors.New("invalid preference")

// ErrTemplateNotFound is returned when a template ID cannot be found in the catalog.
var ErrTemplateNotFound = errors.New("template not found")

// ErrGroupNotFound is returned when a clause group ID is not part of the template.
var ErrGroupNotFound = errors.New("clause group not found")

// ErrPreferenceNotFound is returned when no submission exists for a group and party.
var ErrPreferenceNotFound = errors.New("preference not found")

// ErrUnknownParty is returned when a party name is not one of the two negotiating roles.
var ErrUnknownParty = errors.New("unknown party")

// ErrResultNotFound is returned when no result has been published for a template.
var ErrResultNotFound = errors.New("result not found")
