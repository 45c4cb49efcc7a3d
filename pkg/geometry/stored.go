package geometry

import "fmt"

// EncodeStored returns the WKT text of g and the JSON properties that keep
// its structure. Object ids are assigned where missing.
func EncodeStored(g Geometry) (wkt string, properties []byte, err error) {
	wkt, err = Encode(g)
	if err != nil {
		return "", nil, err
	}
	properties, err = BuildProperties(g).Marshal()
	if err != nil {
		return "", nil, fmt.Errorf("%w: properties: %v", ErrEncode, err)
	}
	return wkt, properties, nil
}

// DecodeStored is the inverse of EncodeStored. Empty properties restore the
// flat geometry.
func DecodeStored(wkt string, properties []byte) (Geometry, error) {
	flat, err := Parse(wkt)
	if err != nil {
		return nil, err
	}
	p, err := UnmarshalProperties(properties)
	if err != nil {
		return nil, err
	}
	return Rebuild(flat, p)
}
