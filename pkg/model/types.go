package model

import internalmodel "github.com/goliatone/go-formdemo/internal/model"

// InputKind re-exports the internal input kind enumeration.
type InputKind = internalmodel.InputKind

const (
	KindText        = internalmodel.KindText
	KindEmail       = internalmodel.KindEmail
	KindPassword    = internalmodel.KindPassword
	KindNumber      = internalmodel.KindNumber
	KindTel         = internalmodel.KindTel
	KindURL         = internalmodel.KindURL
	KindDate        = internalmodel.KindDate
	KindTime        = internalmodel.KindTime
	KindDateTime    = internalmodel.KindDateTime
	KindMonth       = internalmodel.KindMonth
	KindWeek        = internalmodel.KindWeek
	KindColor       = internalmodel.KindColor
	KindRange       = internalmodel.KindRange
	KindFile        = internalmodel.KindFile
	KindSearch      = internalmodel.KindSearch
	KindCheckbox    = internalmodel.KindCheckbox
	KindRadio       = internalmodel.KindRadio
	KindSelect      = internalmodel.KindSelect
	KindMultiSelect = internalmodel.KindMultiSelect
	KindTextarea    = internalmodel.KindTextarea
)

const (
	CheckboxField  = internalmodel.CheckboxField
	ExtraInfoField = internalmodel.ExtraInfoField
)

type Field = internalmodel.Field
type FormModel = internalmodel.FormModel

// Kinds lists every supported input kind.
func Kinds() []InputKind { return internalmodel.Kinds() }

// ParseKind normalises a raw kind string.
func ParseKind(raw string) InputKind { return internalmodel.ParseKind(raw) }

// DefaultLabeler exposes the label derivation used for unlabeled fields.
func DefaultLabeler(name string) string { return internalmodel.DefaultLabeler(name) }
