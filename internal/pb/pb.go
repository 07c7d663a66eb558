package pb

import (
	proto "github.com/gogo/protobuf/proto"
)

// Metadata describes the run which produced the results.
type Metadata struct {
	// Version of the output format.
	Version int32 `protobuf:"varint,1,opt,name=version,proto3" json:"version,omitempty"`
	// Hash is the git commit hash of the binary.
	Hash string `protobuf:"bytes,2,opt,name=hash,proto3" json:"hash,omitempty"`
	// Script is the name of the executed script.
	Script string `protobuf:"bytes,3,opt,name=script,proto3" json:"script,omitempty"`
	// KeyType is "int", "float" or "string".
	KeyType string `protobuf:"bytes,4,opt,name=key_type,json=keyType,proto3" json:"key_type,omitempty"`
	// RunTime is in milliseconds.
	RunTime int64 `protobuf:"varint,5,opt,name=run_time,json=runTime,proto3" json:"run_time,omitempty"`
}

func (m *Metadata) Reset()         { *m = Metadata{} }
func (m *Metadata) String() string { return proto.CompactTextString(m) }
func (*Metadata) ProtoMessage()    {}

// OpResult is the outcome of a single script operation.
type OpResult struct {
	Op    string   `protobuf:"bytes,1,opt,name=op,proto3" json:"op,omitempty"`
	Line  int32    `protobuf:"varint,2,opt,name=line,proto3" json:"line,omitempty"`
	Found bool     `protobuf:"varint,3,opt,name=found,proto3" json:"found,omitempty"`
	Value string   `protobuf:"bytes,4,opt,name=value,proto3" json:"value,omitempty"`
	Keys  []string `protobuf:"bytes,5,rep,name=keys,proto3" json:"keys,omitempty"`
}

func (m *OpResult) Reset()         { *m = OpResult{} }
func (m *OpResult) String() string { return proto.CompactTextString(m) }
func (*OpResult) ProtoMessage()    {}

// SessionResults is the top level message written by `ordtree run --pb`.
type SessionResults struct {
	Header  *Metadata   `protobuf:"bytes,1,opt,name=header,proto3" json:"header,omitempty"`
	Results []*OpResult `protobuf:"bytes,2,rep,name=results,proto3" json:"results,omitempty"`
	// Size is the number of keys in the tree after the last operation.
	Size int64 `protobuf:"varint,3,opt,name=size,proto3" json:"size,omitempty"`
	// Height is the tree height after the last operation.
	Height int32 `protobuf:"varint,4,opt,name=height,proto3" json:"height,omitempty"`
}

func (m *SessionResults) Reset()         { *m = SessionResults{} }
func (m *SessionResults) String() string { return proto.CompactTextString(m) }
func (*SessionResults) ProtoMessage()    {}

func init() {
	proto.RegisterType((*Metadata)(nil), "ordtree.Metadata")
	proto.RegisterType((*OpResult)(nil), "ordtree.OpResult")
	proto.RegisterType((*SessionResults)(nil), "ordtree.SessionResults")
}
