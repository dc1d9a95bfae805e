// Copyright (c) 2019 The Lucre Authors. All rights reserved.
// This file is part of go-lucre. Use of this source code is governed by a
// MIT-style license that can be found in the LICENSE file.

package chain

import (
	"encoding/binary"
	"encoding/hex"
	"io"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/pkg/errors"
)

// PointLen is the byte length of a serialized curve point.
const PointLen = 33

// ScalarLen is the byte length of a serialized scalar.
const ScalarLen = 32

// Point is a compressed secp256k1 curve point. It serves both as a Pedersen
// commitment and as a public key or nonce on the wire.
type Point [PointLen]byte

// Commitment is a Pedersen commitment key·G + amount·H.
type Commitment = Point

var (
	initOnce sync.Once
	genH     secp256k1.JacobianPoint
)

// Init performs the process-wide curve initialization, deriving the value
// generator H. It is an initialize-once precondition to using commitments;
// all commitment operations trigger it implicitly.
func Init() {
	initOnce.Do(func() {
		// H is derived from the base generator by try-and-increment
		// hashing, so that its discrete log relative to G is unknown.
		g := secp256k1.NewPrivateKey(new(secp256k1.ModNScalar).SetInt(1)).
			PubKey().SerializeCompressed()
		for i := uint32(0); ; i++ {
			var seed [4]byte
			binary.LittleEndian.PutUint32(seed[:], i)
			h := chainhash.DoubleHashB(append(g, seed[:]...))
			candidate := make([]byte, 0, PointLen)
			candidate = append(candidate, 0x02)
			candidate = append(candidate, h...)
			if pub, err := secp256k1.ParsePubKey(candidate); err == nil {
				pub.AsJacobian(&genH)
				return
			}
		}
	})
}

func (p Point) String() string { return hex.EncodeToString(p[:]) }

// Encode writes the point to the writer.
func (p Point) Encode(w io.Writer) error {
	_, err := w.Write(p[:])
	return errors.Wrap(err, "writing point")
}

// Decode reads the point from the reader.
func (p *Point) Decode(r io.Reader) error {
	_, err := io.ReadFull(r, p[:])
	return errors.Wrap(err, "reading point")
}

func pointFromJacobian(j *secp256k1.JacobianPoint) Point {
	j.ToAffine()
	var p Point
	copy(p[:], secp256k1.NewPublicKey(&j.X, &j.Y).SerializeCompressed())
	return p
}

func (p Point) toJacobian(j *secp256k1.JacobianPoint) error {
	pub, err := secp256k1.ParsePubKey(p[:])
	if err != nil {
		return errors.Wrap(err, "parsing point")
	}
	pub.AsJacobian(j)
	return nil
}

// PointFromScalar returns k·G.
func PointFromScalar(k *secp256k1.ModNScalar) Point {
	var j secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(k, &j)
	return pointFromJacobian(&j)
}

// AddPoints returns the curve sum of two serialized points.
func AddPoints(a, b Point) (Point, error) {
	var ja, jb, sum secp256k1.JacobianPoint
	if err := a.toJacobian(&ja); err != nil {
		return Point{}, err
	}
	if err := b.toJacobian(&jb); err != nil {
		return Point{}, err
	}
	secp256k1.AddNonConst(&ja, &jb, &sum)
	return pointFromJacobian(&sum), nil
}

// NewCommitment computes the Pedersen commitment key·G + amount·H.
func NewCommitment(key *secp256k1.ModNScalar, amount Amount) Commitment {
	Init()
	var kG, vH, sum secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(key, &kG)

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(amount))
	v := new(secp256k1.ModNScalar)
	v.SetByteSlice(buf[:])
	h := genH
	secp256k1.ScalarMultNonConst(v, &h, &vH)

	secp256k1.AddNonConst(&kG, &vH, &sum)
	return pointFromJacobian(&sum)
}

// Input is a transaction input referencing a UTXO by its commitment.
type Input struct {
	Commitment Commitment
}

// Encode writes the input to the writer.
func (in Input) Encode(w io.Writer) error { return in.Commitment.Encode(w) }

// Decode reads the input from the reader.
func (in *Input) Decode(r io.Reader) error { return in.Commitment.Decode(r) }

// Output is a transaction output carrying a commitment to the created UTXO.
type Output struct {
	Commitment Commitment
}

// Encode writes the output to the writer.
func (o Output) Encode(w io.Writer) error { return o.Commitment.Encode(w) }

// Decode reads the output from the reader.
func (o *Output) Decode(r io.Reader) error { return o.Commitment.Decode(r) }

// SigChallenge computes the Schnorr challenge scalar
// e = H(R || X || fee || minHeight) for a kernel signature, where R is the
// combined public nonce and X the combined public excess.
func SigChallenge(nonce, excess Point, fee Amount, minHeight Height) *secp256k1.ModNScalar {
	var buf [PointLen*2 + 16]byte
	copy(buf[:PointLen], nonce[:])
	copy(buf[PointLen:2*PointLen], excess[:])
	binary.LittleEndian.PutUint64(buf[2*PointLen:], uint64(fee))
	binary.LittleEndian.PutUint64(buf[2*PointLen+8:], uint64(minHeight))
	e := new(secp256k1.ModNScalar)
	e.SetByteSlice(chainhash.DoubleHashB(buf[:]))
	return e
}

// PartialSig computes a party's partial kernel signature s = r + e·k from
// its secret nonce r and secret excess k.
func PartialSig(k, r, e *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	s := new(secp256k1.ModNScalar).Mul2(e, k)
	return s.Add(r)
}

// AddSigs combines partial signatures.
func AddSigs(a, b *secp256k1.ModNScalar) *secp256k1.ModNScalar {
	return new(secp256k1.ModNScalar).Add2(a, b)
}

// VerifySig checks s·G == R + e·X for the combined signature scalar s,
// public nonce R and public excess X.
func VerifySig(s *secp256k1.ModNScalar, nonce, excess Point, e *secp256k1.ModNScalar) bool {
	var jr, jx, ex, rhs, lhs secp256k1.JacobianPoint
	if nonce.toJacobian(&jr) != nil || excess.toJacobian(&jx) != nil {
		return false
	}
	secp256k1.ScalarMultNonConst(e, &jx, &ex)
	secp256k1.AddNonConst(&jr, &ex, &rhs)
	secp256k1.ScalarBaseMultNonConst(s, &lhs)
	return pointFromJacobian(&lhs) == pointFromJacobian(&rhs)
}

// ScalarBytes serializes a scalar.
func ScalarBytes(s *secp256k1.ModNScalar) [ScalarLen]byte {
	return s.Bytes()
}

// ScalarFromBytes deserializes a scalar.
func ScalarFromBytes(b [ScalarLen]byte) *secp256k1.ModNScalar {
	s := new(secp256k1.ModNScalar)
	s.SetBytes(&b)
	return s
}

// NewRandomScalar samples a uniformly random non-zero scalar.
func NewRandomScalar() (*secp256k1.ModNScalar, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "sampling scalar")
	}
	return &priv.Key, nil
}
