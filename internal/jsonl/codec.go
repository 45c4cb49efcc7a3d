// Package jsonl reads and writes feature graphs as JSON Lines, one feature
// per line. Geometries are carried as WKT plus their structural properties.
package jsonl

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/mesh-intelligence/citydb/pkg/geometry"
	"github.com/mesh-intelligence/citydb/pkg/types"
)

// Marshal encodes f as one JSON line without the trailing newline.
func Marshal(f *types.Feature) ([]byte, error) {
	rec, err := encodeFeature(f)
	if err != nil {
		return nil, err
	}
	return json.Marshal(rec)
}

// Unmarshal decodes a line written by Marshal. Failures wrap
// types.ErrInvalidData.
func Unmarshal(data []byte) (*types.Feature, error) {
	var rec featureJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return decodeFeature(&rec)
}

func encodeFeature(f *types.Feature) (*featureJSON, error) {
	rec := &featureJSON{
		Type:                f.Type,
		ObjectID:            f.ObjectID,
		Identifier:          f.Identifier,
		IdentifierCodeSpace: f.IdentifierCodeSpace,
	}
	if !f.Envelope.IsEmpty() {
		wkt, err := geometry.Encode(f.Envelope.Diagonal())
		if err != nil {
			return nil, fmt.Errorf("envelope of %s: %w", f.ObjectID, err)
		}
		rec.Envelope = wkt
	}
	for _, p := range f.Properties() {
		prop, err := encodeProperty(p)
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.ObjectID, err)
		}
		rec.Properties = append(rec.Properties, *prop)
	}
	return rec, nil
}

func encodeProperty(p types.Property) (*propertyJSON, error) {
	rec := &propertyJSON{Name: p.Header().Name}
	switch v := p.(type) {
	case *types.Attribute:
		return encodeAttribute(v), nil
	case *types.FeatureProperty:
		rec.Kind = kindFeature
		rec.Relation = relationContains
		if v.Relation == types.RelationRelates {
			rec.Relation = relationRelates
		}
		rec.Reference = v.Reference
		if v.Feature != nil {
			child, err := encodeFeature(v.Feature)
			if err != nil {
				return nil, err
			}
			rec.Feature = child
		}
	case *types.GeometryProperty:
		rec.Kind = kindGeometry
		rec.LOD = v.LOD
		rec.Reference = v.Reference
		g, err := encodeGeometry(v.Geometry)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", v.Name, err)
		}
		rec.Geometry = g
	case *types.ImplicitGeometryProperty:
		rec.Kind = kindImplicitGeometry
		rec.LOD = v.LOD
		rec.Matrix = v.TransformationMatrix
		rec.Reference = v.Reference
		if v.ReferencePoint != nil {
			wkt, err := geometry.Encode(v.ReferencePoint)
			if err != nil {
				return nil, fmt.Errorf("property %s: reference point: %w", v.Name, err)
			}
			rec.ReferencePoint = wkt
		}
		if ig := v.Object; ig != nil {
			g, err := encodeGeometry(ig.Geometry)
			if err != nil {
				return nil, fmt.Errorf("property %s: template: %w", v.Name, err)
			}
			rec.Template = &templateJSON{
				ObjectID:      ig.ObjectID,
				MimeType:      ig.MimeType,
				LibraryObject: ig.LibraryObject,
				Geometry:      g,
			}
		}
	case *types.AppearanceProperty:
		rec.Kind = kindAppearance
		rec.Reference = v.Reference
		if a := v.Appearance; a != nil {
			rec.Appearance = &appearanceJSON{ObjectID: a.ObjectID, Identifier: a.Identifier, Theme: a.Theme, IsGlobal: a.IsGlobal}
		}
	case *types.AddressProperty:
		rec.Kind = kindAddress
		rec.Reference = v.Reference
		if a := v.Address; a != nil {
			addr, err := encodeAddress(a)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", v.Name, err)
			}
			rec.Address = addr
		}
	default:
		return nil, fmt.Errorf("%w: unsupported property %T", types.ErrInvalidData, p)
	}
	return rec, nil
}

func encodeAttribute(a *types.Attribute) *propertyJSON {
	rec := &propertyJSON{
		Kind:            kindAttribute,
		Name:            a.Name,
		DataType:        a.DataType.String(),
		Int:             a.IntValue,
		Double:          a.DoubleValue,
		String:          a.StringValue,
		TimeStamp:       a.TimeStamp,
		URI:             a.URI,
		CodeSpace:       a.CodeSpace,
		UOM:             a.UOM,
		Array:           a.ArrayValue,
		Content:         a.GenericContent,
		ContentMimeType: a.GenericContentMimeType,
	}
	for _, child := range a.Children {
		rec.Children = append(rec.Children, *encodeAttribute(child))
	}
	return rec
}

func encodeGeometry(g geometry.Geometry) (*geometryJSON, error) {
	if g == nil {
		return nil, nil
	}
	wkt, err := geometry.Encode(g)
	if err != nil {
		return nil, err
	}
	return &geometryJSON{WKT: wkt, Properties: geometry.BuildProperties(g)}, nil
}

func encodeAddress(a *types.Address) (*addressJSON, error) {
	rec := &addressJSON{
		ObjectID:    a.ObjectID,
		Identifier:  a.Identifier,
		Street:      a.Street,
		HouseNumber: a.HouseNumber,
		POBox:       a.POBox,
		ZipCode:     a.ZipCode,
		City:        a.City,
		State:       a.State,
		Country:     a.Country,
		FreeText:    a.FreeText,
	}
	if a.MultiPoint != nil {
		wkt, err := geometry.Encode(a.MultiPoint)
		if err != nil {
			return nil, fmt.Errorf("address %s: %w", a.ObjectID, err)
		}
		rec.MultiPoint = wkt
	}
	return rec, nil
}

func decodeFeature(rec *featureJSON) (*types.Feature, error) {
	f := types.NewFeature(rec.Type)
	f.ObjectID = rec.ObjectID
	f.Identifier = rec.Identifier
	f.IdentifierCodeSpace = rec.IdentifierCodeSpace
	if rec.Envelope != "" {
		g, err := geometry.Parse(rec.Envelope)
		if err != nil {
			return nil, fmt.Errorf("%w: envelope of %s: %v", types.ErrInvalidData, rec.ObjectID, err)
		}
		f.Envelope = geometry.EnvelopeOf(g)
	}
	for i := range rec.Properties {
		p, err := decodeProperty(&rec.Properties[i])
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", rec.ObjectID, err)
		}
		if err := f.AddProperty(p); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func decodeProperty(rec *propertyJSON) (types.Property, error) {
	switch rec.Kind {
	case kindAttribute:
		return decodeAttribute(rec)
	case kindFeature:
		var fp *types.FeatureProperty
		switch {
		case rec.Feature != nil:
			child, err := decodeFeature(rec.Feature)
			if err != nil {
				return nil, err
			}
			fp = types.NewFeatureProperty(rec.Name, child)
		case rec.Reference != nil:
			fp = types.NewFeatureReference(rec.Name, rec.Reference)
		default:
			return nil, fmt.Errorf("%w: feature property %s has neither feature nor reference", types.ErrInvalidData, rec.Name)
		}
		switch rec.Relation {
		case relationContains:
			fp.Relation = types.RelationContains
		case relationRelates:
			fp.Relation = types.RelationRelates
		case "":
		default:
			return nil, fmt.Errorf("%w: property %s: unknown relation %q", types.ErrInvalidData, rec.Name, rec.Relation)
		}
		return fp, nil
	case kindGeometry:
		g, err := decodeGeometry(rec.Geometry)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", rec.Name, err)
		}
		if g == nil && rec.Reference != nil {
			return types.NewGeometryReference(rec.Name, rec.Reference, rec.LOD), nil
		}
		return types.NewGeometryProperty(rec.Name, g, rec.LOD), nil
	case kindImplicitGeometry:
		return decodeImplicitGeometry(rec)
	case kindAppearance:
		switch {
		case rec.Appearance != nil:
			a := rec.Appearance
			return types.NewAppearanceProperty(rec.Name, &types.Appearance{
				ObjectID: a.ObjectID, Identifier: a.Identifier, Theme: a.Theme, IsGlobal: a.IsGlobal,
			}), nil
		case rec.Reference != nil:
			return types.NewAppearanceReference(rec.Name, rec.Reference), nil
		}
		return nil, fmt.Errorf("%w: appearance property %s has neither appearance nor reference", types.ErrInvalidData, rec.Name)
	case kindAddress:
		switch {
		case rec.Address != nil:
			a, err := decodeAddress(rec.Address)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", rec.Name, err)
			}
			return types.NewAddressProperty(rec.Name, a), nil
		case rec.Reference != nil:
			return types.NewAddressReference(rec.Name, rec.Reference), nil
		}
		return nil, fmt.Errorf("%w: address property %s has neither address nor reference", types.ErrInvalidData, rec.Name)
	}
	return nil, fmt.Errorf("%w: property %s has unknown kind %q", types.ErrInvalidData, rec.Name, rec.Kind)
}

func decodeAttribute(rec *propertyJSON) (*types.Attribute, error) {
	dt, err := types.ParseDataType(rec.DataType)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", rec.Name, err)
	}
	a := types.NewAttribute(rec.Name, dt)
	a.IntValue = rec.Int
	a.DoubleValue = rec.Double
	a.StringValue = rec.String
	a.TimeStamp = rec.TimeStamp
	a.URI = rec.URI
	a.CodeSpace = rec.CodeSpace
	a.UOM = rec.UOM
	a.ArrayValue = rec.Array
	a.GenericContent = rec.Content
	a.GenericContentMimeType = rec.ContentMimeType
	for i := range rec.Children {
		child, err := decodeAttribute(&rec.Children[i])
		if err != nil {
			return nil, err
		}
		a.AddChild(child)
	}
	return a, nil
}

func decodeImplicitGeometry(rec *propertyJSON) (*types.ImplicitGeometryProperty, error) {
	var ip *types.ImplicitGeometryProperty
	switch {
	case rec.Template != nil:
		g, err := decodeGeometry(rec.Template.Geometry)
		if err != nil {
			return nil, fmt.Errorf("property %s: template: %w", rec.Name, err)
		}
		ip = types.NewImplicitGeometryProperty(rec.Name, &types.ImplicitGeometry{
			ObjectID:      rec.Template.ObjectID,
			MimeType:      rec.Template.MimeType,
			LibraryObject: rec.Template.LibraryObject,
			Geometry:      g,
		})
	case rec.Reference != nil:
		ip = types.NewImplicitGeometryReference(rec.Name, rec.Reference)
	default:
		return nil, fmt.Errorf("%w: implicit geometry property %s has neither template nor reference", types.ErrInvalidData, rec.Name)
	}
	ip.LOD = rec.LOD
	ip.TransformationMatrix = rec.Matrix
	if rec.ReferencePoint != "" {
		g, err := geometry.Parse(rec.ReferencePoint)
		if err != nil {
			return nil, fmt.Errorf("%w: property %s: reference point: %v", types.ErrInvalidData, rec.Name, err)
		}
		pt, ok := g.(*geometry.Point)
		if !ok {
			return nil, fmt.Errorf("%w: property %s: reference point is a %s", types.ErrInvalidData, rec.Name, g.Type())
		}
		ip.ReferencePoint = pt
	}
	return ip, nil
}

func decodeGeometry(rec *geometryJSON) (geometry.Geometry, error) {
	if rec == nil {
		return nil, nil
	}
	flat, err := geometry.Parse(rec.WKT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	g, err := geometry.Rebuild(flat, rec.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	return g, nil
}

func decodeAddress(rec *addressJSON) (*types.Address, error) {
	a := &types.Address{
		ObjectID:    rec.ObjectID,
		Identifier:  rec.Identifier,
		Street:      rec.Street,
		HouseNumber: rec.HouseNumber,
		POBox:       rec.POBox,
		ZipCode:     rec.ZipCode,
		City:        rec.City,
		State:       rec.State,
		Country:     rec.Country,
		FreeText:    rec.FreeText,
	}
	if rec.MultiPoint != "" {
		g, err := geometry.Parse(rec.MultiPoint)
		if err != nil {
			return nil, fmt.Errorf("%w: address %s: %v", types.ErrInvalidData, rec.ObjectID, err)
		}
		mp, ok := g.(*geometry.MultiPoint)
		if !ok {
			return nil, fmt.Errorf("%w: address %s: expected MultiPoint, found %s", types.ErrInvalidData, rec.ObjectID, g.Type())
		}
		a.MultiPoint = mp
	}
	return a, nil
}
