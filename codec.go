package ostree

import (
	"encoding"

	"github.com/pingcap/errors"
	"github.com/ugorji/go/codec"
	"go.uber.org/zap"
)

// MarshalBinary encodes Tree into a binary form and returns the result.
// Entries are written in pre-order, so UnmarshalBinary rebuilds the same shape.
func (t *Tree[K, V]) MarshalBinary() (out []byte, err error) {
	var mh codec.MsgpackHandle
	enc := codec.NewEncoderBytes(&out, &mh)
	err = enc.Encode(t.count)
	if err != nil {
		return nil, errors.Trace(err)
	}
	t.preorder(func(n *Node[K, V]) {
		if err != nil {
			return
		}
		if err = enc.Encode(n.key); err != nil {
			return
		}
		err = enc.Encode(n.value)
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return
}

// UnmarshalBinary decodes Tree from a binary form generated by MarshalBinary.
// On error t is left unchanged.
func (t *Tree[K, V]) UnmarshalBinary(in []byte) (err error) {
	var mh codec.MsgpackHandle
	dec := codec.NewDecoderBytes(in, &mh)
	num, err := decodeCount(dec)
	if err != nil {
		return
	}
	nt := New[K, V]()
	for i := 0; i < num; i++ {
		var key K
		var value V
		if err = dec.Decode(&key); err != nil {
			return errors.Annotatef(err, "decode key %d", i)
		}
		if err = dec.Decode(&value); err != nil {
			return errors.Annotatef(err, "decode value %d", i)
		}
		if err = nt.Insert(key, value); err != nil {
			return
		}
	}
	if err = checkTrailing(dec, in, num); err != nil {
		return
	}
	*t = *nt
	return
}

// MarshalBinary encodes PercentileIndex into a binary form and returns the result.
// Only values are written since each value is its own key.
func (p *PercentileIndex[T]) MarshalBinary() (out []byte, err error) {
	var mh codec.MsgpackHandle
	enc := codec.NewEncoderBytes(&out, &mh)
	p.lazyInit()
	err = enc.Encode(p.tree.Len())
	if err != nil {
		return nil, errors.Trace(err)
	}
	p.tree.preorder(func(n *Node[T, T]) {
		if err == nil {
			err = enc.Encode(n.key)
		}
	})
	if err != nil {
		return nil, errors.Trace(err)
	}
	return
}

// UnmarshalBinary decodes PercentileIndex from a binary form generated by
// MarshalBinary. On error p is left unchanged.
func (p *PercentileIndex[T]) UnmarshalBinary(in []byte) (err error) {
	var mh codec.MsgpackHandle
	dec := codec.NewDecoderBytes(in, &mh)
	num, err := decodeCount(dec)
	if err != nil {
		return
	}
	nt := New[T, T]()
	for i := 0; i < num; i++ {
		var val T
		if err = dec.Decode(&val); err != nil {
			return errors.Annotatef(err, "decode value %d", i)
		}
		if err = nt.Insert(val, val); err != nil {
			return
		}
	}
	if err = checkTrailing(dec, in, num); err != nil {
		return
	}
	p.tree = nt
	p.lazyInit()
	p.logger.Debug("percentile index decoded", zap.Int("num", num))
	return
}

func decodeCount(dec *codec.Decoder) (int, error) {
	num := 0
	if err := dec.Decode(&num); err != nil {
		return 0, errors.Annotate(err, "decode count")
	}
	if num < 0 {
		return 0, errors.Errorf("invalid entry count %d", num)
	}
	return num, nil
}

// checkTrailing rejects input with bytes left after the counted entries.
func checkTrailing(dec *codec.Decoder, in []byte, num int) error {
	if read := dec.NumBytesRead(); read != len(in) {
		return errors.Errorf("trailing data after %d entries: %d of %d bytes read", num, read, len(in))
	}
	return nil
}

var (
	_ encoding.BinaryMarshaler   = (*Tree[int, int])(nil)
	_ encoding.BinaryUnmarshaler = (*Tree[int, int])(nil)
	_ encoding.BinaryMarshaler   = (*PercentileIndex[int])(nil)
	_ encoding.BinaryUnmarshaler = (*PercentileIndex[int])(nil)
)
