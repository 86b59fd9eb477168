package store

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/hashicorp-forge/contentsync/pkg/content"
)

// ElementRecord is the stored form of one element.
type ElementRecord struct {
	Kind content.ElementKind `json:"kind" yaml:"kind"`
	Key  string              `json:"key" yaml:"key"`
	Data map[string]any      `json:"data,omitempty" yaml:"data,omitempty"`
}

// EncodeElements encodes elements for the items.elements column.
func EncodeElements(elements []content.Element) (JSON, error) {
	records := make([]ElementRecord, 0, len(elements))
	for _, el := range elements {
		rec, err := encodeElement(el)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return MarshalJSONColumn(records)
}

// DecodeElements decodes the items.elements column.
func DecodeElements(column JSON) ([]content.Element, error) {
	var records []ElementRecord
	if err := column.Unmarshal(&records); err != nil {
		return nil, err
	}
	return decodeRecords(records)
}

func decodeRecords(records []ElementRecord) ([]content.Element, error) {
	elements := make([]content.Element, 0, len(records))
	for _, rec := range records {
		el, err := decodeElement(rec)
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	return elements, nil
}

func encodeElement(el content.Element) (ElementRecord, error) {
	rec := ElementRecord{Key: el.Key()}

	switch e := el.(type) {
	case *content.ItemName:
		rec.Kind = content.KindItemName
	case *content.PrimaryCategory:
		rec.Kind = content.KindPrimaryCategory
	case *content.ItemCategory:
		rec.Kind = content.KindItemCategory
	case *content.ItemTag:
		rec.Kind = content.KindItemTag
	case *content.Text:
		rec.Kind = content.KindText
		rec.Data = map[string]any{"values": e.Values, "repeatable": e.Repeatable}
	case *content.File:
		rec.Kind = content.KindFile
		if e.Image {
			rec.Kind = content.KindImage
		}
		rec.Data = map[string]any{"files": e.Files, "repeatable": e.Repeatable}
	case *content.RelatedItems:
		rec.Kind = content.KindRelatedItems
		rec.Data = map[string]any{"item_ids": e.ItemIDs}
	case *content.OptionSet:
		rec.Kind = content.KindOption
		options := make([]map[string]any, 0, len(e.Options))
		for _, o := range e.Options {
			options = append(options, map[string]any{"name": o.Name, "value": o.Value})
		}
		rec.Data = map[string]any{"selected": e.Selected, "options": options}
	case *content.Repeatable:
		rec.Kind = content.KindRepeatable
		rec.Data = map[string]any{"values": e.Values, "repeatable": e.Repeatable}
	case *content.Raw:
		rec.Kind = e.Kind
		rec.Data = map[string]any{"value": e.Value}
	default:
		return rec, fmt.Errorf("cannot encode element %q of type %T", el.Key(), el)
	}
	return rec, nil
}

func decodeElement(rec ElementRecord) (content.Element, error) {
	if rec.Key == "" {
		return nil, fmt.Errorf("element of kind %q has no key", rec.Kind)
	}

	var target content.Element
	switch rec.Kind {
	case content.KindItemName:
		return content.NewItemName(rec.Key), nil
	case content.KindPrimaryCategory:
		return content.NewPrimaryCategory(rec.Key), nil
	case content.KindItemCategory:
		return content.NewItemCategory(rec.Key), nil
	case content.KindItemTag:
		return content.NewItemTag(rec.Key), nil
	case content.KindText, content.KindTextarea:
		target = content.NewText(rec.Key, false)
	case content.KindFile, content.KindImage:
		target = content.NewFile(rec.Key, rec.Kind == content.KindImage, false)
	case content.KindRelatedItems:
		target = content.NewRelatedItems(rec.Key)
	case content.KindOption:
		target = content.NewOptionSet(rec.Key, nil)
	case content.KindRepeatable:
		target = content.NewRepeatable(rec.Key, false)
	case "":
		return nil, fmt.Errorf("element %q has no kind", rec.Key)
	default:
		// Kinds without a dedicated variant keep their payload as is.
		var value any
		if v, ok := rec.Data["value"]; ok {
			value = v
		} else if len(rec.Data) > 0 {
			value = rec.Data
		}
		return content.NewRaw(rec.Key, rec.Kind, value), nil
	}

	if len(rec.Data) == 0 {
		return target, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(rec.Data); err != nil {
		return nil, fmt.Errorf("error decoding element %q (%s): %w", rec.Key, rec.Kind, err)
	}
	return target, nil
}
