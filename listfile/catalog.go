package listfile

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/leftmike/listscan/page"
	"github.com/leftmike/listscan/sql"
)

func protoField(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type,
	msg string) *descriptorpb.FieldDescriptorProto {

	fdp := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	if msg != "" {
		fdp.TypeName = proto.String(".listfile." + msg)
	}
	return fdp
}

const (
	sint64Type  = descriptorpb.FieldDescriptorProto_TYPE_SINT64
	uint64Type  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	bytesType   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
	messageType = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
)

// catalogProto describes the messages used to store list ids:
//
//	message VPID { sint64 vol_id = 1; sint64 page_id = 2; }
//	message Domain { sint64 type = 1; sint64 precision = 2; sint64 scale = 3; }
//	message ListID {
//	    bytes file_id = 1;
//	    uint64 query_id = 2;
//	    repeated Domain domains = 3;
//	    VPID first_vpid = 4;
//	    VPID last_vpid = 5;
//	    sint64 tuple_count = 6;
//	    bytes last_page = 7;
//	}
func catalogProto() *descriptorpb.FileDescriptorProto {
	domains := protoField("domains", 3, messageType, "Domain")
	domains.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("listfile/catalog.proto"),
		Package: proto.String("listfile"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("VPID"),
				Field: []*descriptorpb.FieldDescriptorProto{
					protoField("vol_id", 1, sint64Type, ""),
					protoField("page_id", 2, sint64Type, ""),
				},
			},
			{
				Name: proto.String("Domain"),
				Field: []*descriptorpb.FieldDescriptorProto{
					protoField("type", 1, sint64Type, ""),
					protoField("precision", 2, sint64Type, ""),
					protoField("scale", 3, sint64Type, ""),
				},
			},
			{
				Name: proto.String("ListID"),
				Field: []*descriptorpb.FieldDescriptorProto{
					protoField("file_id", 1, bytesType, ""),
					protoField("query_id", 2, uint64Type, ""),
					domains,
					protoField("first_vpid", 4, messageType, "VPID"),
					protoField("last_vpid", 5, messageType, "VPID"),
					protoField("tuple_count", 6, sint64Type, ""),
					protoField("last_page", 7, bytesType, ""),
				},
			},
		},
	}
}

var (
	vpidMsg   protoreflect.MessageDescriptor
	domainMsg protoreflect.MessageDescriptor
	listIDMsg protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(catalogProto(), nil)
	if err != nil {
		panic(fmt.Sprintf("listfile: catalog descriptor: %s", err))
	}
	msgs := fd.Messages()
	vpidMsg = msgs.ByName("VPID")
	domainMsg = msgs.ByName("Domain")
	listIDMsg = msgs.ByName("ListID")
}

func field(md protoreflect.MessageDescriptor,
	name protoreflect.Name) protoreflect.FieldDescriptor {

	return md.Fields().ByName(name)
}

func setInt(m protoreflect.Message, name protoreflect.Name, i int64) {
	m.Set(field(m.Descriptor(), name), protoreflect.ValueOfInt64(i))
}

// getInt returns the integer field name of m, checking that it is in [lo, hi].
func getInt(m protoreflect.Message, name protoreflect.Name, lo, hi int64) (int64, error) {
	i := m.Get(field(m.Descriptor(), name)).Int()
	if i < lo || i > hi {
		return 0, fmt.Errorf("listfile: %s: %s: %d out of range", m.Descriptor().Name(), name,
			i)
	}
	return i, nil
}

func vpidMessage(vpid page.VPID) *dynamicpb.Message {
	m := dynamicpb.NewMessage(vpidMsg)
	setInt(m, "vol_id", int64(vpid.VolID))
	setInt(m, "page_id", int64(vpid.PageID))
	return m
}

func messageVPID(m protoreflect.Message) (page.VPID, error) {
	volID, err := getInt(m, "vol_id", math.MinInt16, math.MaxInt16)
	if err != nil {
		return page.NullVPID, err
	}
	pageID, err := getInt(m, "page_id", math.MinInt32, math.MaxInt32)
	if err != nil {
		return page.NullVPID, err
	}
	return page.VPID{VolID: int16(volID), PageID: int32(pageID)}, nil
}

func messageDomain(m protoreflect.Message) (sql.Domain, error) {
	typ, err := getInt(m, "type", 0, math.MaxInt32)
	if err != nil {
		return sql.Domain{}, err
	}
	prec, err := getInt(m, "precision", math.MinInt32, math.MaxInt32)
	if err != nil {
		return sql.Domain{}, err
	}
	scale, err := getInt(m, "scale", math.MinInt32, math.MaxInt32)
	if err != nil {
		return sql.Domain{}, err
	}
	return sql.Domain{Type: sql.DataType(typ), Precision: int(prec), Scale: int(scale)}, nil
}

// MarshalListID encodes lid as a protobuf message.
func MarshalListID(lid *ListID) []byte {
	m := dynamicpb.NewMessage(listIDMsg)
	m.Set(field(listIDMsg, "file_id"), protoreflect.ValueOfBytes(lid.FileID[:]))
	m.Set(field(listIDMsg, "query_id"), protoreflect.ValueOfUint64(lid.QueryID))

	doms := m.Mutable(field(listIDMsg, "domains")).List()
	for _, dom := range lid.TypeList {
		dm := dynamicpb.NewMessage(domainMsg)
		setInt(dm, "type", int64(dom.Type))
		setInt(dm, "precision", int64(dom.Precision))
		setInt(dm, "scale", int64(dom.Scale))
		doms.Append(protoreflect.ValueOfMessage(dm))
	}

	m.Set(field(listIDMsg, "first_vpid"),
		protoreflect.ValueOfMessage(vpidMessage(lid.FirstVPID)))
	m.Set(field(listIDMsg, "last_vpid"),
		protoreflect.ValueOfMessage(vpidMessage(lid.LastVPID)))
	setInt(m, "tuple_count", int64(lid.TupleCount))
	if lid.LastPage != nil {
		m.Set(field(listIDMsg, "last_page"), protoreflect.ValueOfBytes(lid.LastPage))
	}

	buf, err := proto.Marshal(m)
	if err != nil {
		panic(fmt.Sprintf("listfile: marshal list id: %s", err))
	}
	return buf
}

// UnmarshalListID decodes a list id encoded by MarshalListID.
func UnmarshalListID(buf []byte) (*ListID, error) {
	m := dynamicpb.NewMessage(listIDMsg)
	err := proto.Unmarshal(buf, m)
	if err != nil {
		return nil, fmt.Errorf("listfile: unmarshal list id: %w", err)
	}

	lid, err := messageListID(m)
	if err != nil {
		return nil, fmt.Errorf("listfile: unmarshal list id: %w", err)
	}
	err = lid.Validate()
	if err != nil {
		return nil, err
	}
	return lid, nil
}

func messageListID(m *dynamicpb.Message) (*ListID, error) {
	lid := ListID{
		QueryID:   m.Get(field(listIDMsg, "query_id")).Uint(),
		FirstVPID: page.NullVPID,
		LastVPID:  page.NullVPID,
	}

	var err error
	lid.FileID, err = uuid.FromBytes(m.Get(field(listIDMsg, "file_id")).Bytes())
	if err != nil {
		return nil, err
	}

	doms := m.Get(field(listIDMsg, "domains")).List()
	for ddx := 0; ddx < doms.Len(); ddx++ {
		dom, err := messageDomain(doms.Get(ddx).Message())
		if err != nil {
			return nil, err
		}
		lid.TypeList = append(lid.TypeList, dom)
	}

	if fd := field(listIDMsg, "first_vpid"); m.Has(fd) {
		lid.FirstVPID, err = messageVPID(m.Get(fd).Message())
		if err != nil {
			return nil, err
		}
	}
	if fd := field(listIDMsg, "last_vpid"); m.Has(fd) {
		lid.LastVPID, err = messageVPID(m.Get(fd).Message())
		if err != nil {
			return nil, err
		}
	}

	cnt, err := getInt(m, "tuple_count", 0, math.MaxInt)
	if err != nil {
		return nil, err
	}
	lid.TupleCount = int(cnt)

	if fd := field(listIDMsg, "last_page"); m.Has(fd) {
		pg := m.Get(fd).Bytes()
		lid.LastPage = append(make([]byte, 0, len(pg)), pg...)
	}
	return &lid, nil
}
