package domain

import (
	"encoding/binary"
	"errors"
	"time"
)

// バイトオーダー: リトルエンディアン
var byteOrder = binary.LittleEndian

const (
	ProtocolVersion   = 1
	HeaderSize        = 25
	PayloadHeaderSize = 2
	JoinPayloadSize   = 16
)

// Header はメッセージヘッダー (25バイト)
//
//	version    u8      (1)
//	sessionID  [16]byte (16)
//	seq        u16     (2)
//	length     u16     (2)  - ペイロード長
//	timestamp  u32     (4)
type Header struct {
	Version   uint8
	SessionID [16]byte
	Seq       uint16
	Length    uint16
	Timestamp uint32
}

// DataType はメッセージの種別
type DataType uint8

const (
	DataTypeInput     DataType = 1
	DataTypeControl   DataType = 4
	DataTypeReplicate DataType = 6
)

// InputSubType はinputメッセージのサブタイプ (クライアント → サーバー)
type InputSubType uint8

const (
	InputSubTypeFire InputSubType = 1
	InputSubTypeAim  InputSubType = 2
	InputSubTypeMove InputSubType = 3
)

// ControlSubType はcontrolメッセージのサブタイプ
type ControlSubType uint8

const (
	ControlSubTypeJoin   ControlSubType = 1
	ControlSubTypeLeave  ControlSubType = 2
	ControlSubTypeKick   ControlSubType = 3
	ControlSubTypePing   ControlSubType = 4
	ControlSubTypePong   ControlSubType = 5
	ControlSubTypeError  ControlSubType = 6
	ControlSubTypeAssign ControlSubType = 7
)

// PayloadHeader はペイロードヘッダー (2バイト)
//
//	datatype  u8 (1)
//	subtype   u8 (1)
type PayloadHeader struct {
	DataType DataType
	SubType  uint8
}

var (
	ErrInvalidHeaderSize  = errors.New("invalid header size")
	ErrInvalidPayloadSize = errors.New("invalid payload size")
)

// ParseHeader はバイト列からHeaderをパースする
func ParseHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, ErrInvalidHeaderSize
	}

	var sessionID [16]byte
	copy(sessionID[:], data[1:17])

	return &Header{
		Version:   data[0],
		SessionID: sessionID,
		Seq:       byteOrder.Uint16(data[17:19]),
		Length:    byteOrder.Uint16(data[19:21]),
		Timestamp: byteOrder.Uint32(data[21:25]),
	}, nil
}

// Encode はHeaderをバイト列にエンコードする
func (h *Header) Encode() []byte {
	data := make([]byte, HeaderSize)
	data[0] = h.Version
	copy(data[1:17], h.SessionID[:])
	byteOrder.PutUint16(data[17:19], h.Seq)
	byteOrder.PutUint16(data[19:21], h.Length)
	byteOrder.PutUint32(data[21:25], h.Timestamp)
	return data
}

// ParsePayloadHeader はバイト列からPayloadHeaderをパースする
func ParsePayloadHeader(data []byte) (*PayloadHeader, error) {
	if len(data) < PayloadHeaderSize {
		return nil, ErrInvalidPayloadSize
	}

	return &PayloadHeader{
		DataType: DataType(data[0]),
		SubType:  data[1],
	}, nil
}

// Encode はPayloadHeaderをバイト列にエンコードする
func (p *PayloadHeader) Encode() []byte {
	data := make([]byte, PayloadHeaderSize)
	data[0] = byte(p.DataType)
	data[1] = p.SubType
	return data
}

// EncodeMessage はヘッダー・ペイロードヘッダー・ペイロードを連結した1メッセージを作る
func EncodeMessage(sessionID SessionID, seq uint16, dataType DataType, subType uint8, payload []byte) []byte {
	header := Header{
		Version:   ProtocolVersion,
		SessionID: sessionID.Bytes(),
		Seq:       seq,
		Length:    uint16(PayloadHeaderSize + len(payload)),
		Timestamp: timestampNow(),
	}
	payloadHeader := PayloadHeader{
		DataType: dataType,
		SubType:  subType,
	}

	data := make([]byte, 0, HeaderSize+PayloadHeaderSize+len(payload))
	data = append(data, header.Encode()...)
	data = append(data, payloadHeader.Encode()...)
	data = append(data, payload...)
	return data
}

// ParseMessage は1メッセージをヘッダー・ペイロードヘッダー・ペイロードに分解する
func ParseMessage(data []byte) (*Header, *PayloadHeader, []byte, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, nil, nil, err
	}
	payloadHeader, err := ParsePayloadHeader(data[HeaderSize:])
	if err != nil {
		return nil, nil, nil, err
	}
	return header, payloadHeader, data[HeaderSize+PayloadHeaderSize:], nil
}

// EncodeControlMessage はペイロードなしのcontrolメッセージをエンコードする
func EncodeControlMessage(sessionID SessionID, seq uint16, subType ControlSubType) []byte {
	return EncodeMessage(sessionID, seq, DataTypeControl, uint8(subType), nil)
}

// EncodeAssignMessage はセッションID通知メッセージをエンコードする
// クライアントに自分のセッションIDを通知するために使用
func EncodeAssignMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypeAssign)
}

// EncodeLeaveMessage はルーム離脱メッセージをエンコードする
// 異常切断時にclose()からRoom離脱を通知するために使用
func EncodeLeaveMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypeLeave)
}

// EncodePingMessage はPingメッセージをエンコードする
// クライアントに死活確認のpingを送信するために使用
func EncodePingMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypePing)
}

// EncodeKickMessage はサーバーからの切断通知をエンコードする
func EncodeKickMessage(sessionID SessionID) []byte {
	return EncodeControlMessage(sessionID, 0, ControlSubTypeKick)
}

// EncodeJoinMessage はルーム参加メッセージをエンコードする
// roomIDがゼロ値のときはRoomManagerがデフォルトルームを割り当てる
func EncodeJoinMessage(sessionID SessionID, seq uint16, roomID RoomID) []byte {
	payload := JoinPayload{RoomID: roomID}
	return EncodeMessage(sessionID, seq, DataTypeControl, uint8(ControlSubTypeJoin), payload.Encode())
}

// JoinPayload はルーム参加メッセージのペイロード (16バイト)
//
//	roomID  [16]byte  - ルームID (UUID)
type JoinPayload struct {
	RoomID RoomID
}

var ErrInvalidJoinPayloadSize = errors.New("invalid join payload size")

// ParseJoinPayload はバイト列からJoinPayloadをパースする
func ParseJoinPayload(data []byte) (*JoinPayload, error) {
	if len(data) < JoinPayloadSize {
		return nil, ErrInvalidJoinPayloadSize
	}

	var roomID RoomID
	copy(roomID[:], data[:JoinPayloadSize])

	return &JoinPayload{
		RoomID: roomID,
	}, nil
}

// Encode はJoinPayloadをバイト列にエンコードする
func (j *JoinPayload) Encode() []byte {
	out := make([]byte, JoinPayloadSize)
	copy(out, j.RoomID[:])
	return out
}

const (
	FirePayloadSize = 2 * Vec3Size
	AimPayloadSize  = RotatorSize
	MovePayloadSize = Vec3Size
)

var ErrInvalidInputPayloadSize = errors.New("invalid input payload size")

// FirePayload は射撃入力 (24バイト)
//
//	origin    Vec3 (12) - 視点のワールド座標
//	direction Vec3 (12) - 視線方向
type FirePayload struct {
	Origin    Vec3
	Direction Vec3
}

func ParseFirePayload(data []byte) (*FirePayload, error) {
	if len(data) < FirePayloadSize {
		return nil, ErrInvalidInputPayloadSize
	}
	origin, _ := ParseVec3(data[0:Vec3Size])
	dir, _ := ParseVec3(data[Vec3Size:FirePayloadSize])
	return &FirePayload{Origin: *origin, Direction: *dir}, nil
}

func (f *FirePayload) Encode() []byte {
	out := make([]byte, 0, FirePayloadSize)
	out = append(out, f.Origin.Encode()...)
	out = append(out, f.Direction.Encode()...)
	return out
}

// AimPayload は照準の姿勢 (12バイト)
type AimPayload struct {
	Rotation Rotator
}

func ParseAimPayload(data []byte) (*AimPayload, error) {
	if len(data) < AimPayloadSize {
		return nil, ErrInvalidInputPayloadSize
	}
	rot, _ := ParseRotator(data)
	return &AimPayload{Rotation: *rot}, nil
}

func (a *AimPayload) Encode() []byte {
	return a.Rotation.Encode()
}

// MovePayload はクライアントが移動した結果の位置 (12バイト)
type MovePayload struct {
	Location Vec3
}

func ParseMovePayload(data []byte) (*MovePayload, error) {
	if len(data) < MovePayloadSize {
		return nil, ErrInvalidInputPayloadSize
	}
	loc, _ := ParseVec3(data)
	return &MovePayload{Location: *loc}, nil
}

func (m *MovePayload) Encode() []byte {
	return m.Location.Encode()
}

func timestampNow() uint32 {
	return uint32(time.Now().UnixMilli() & 0xFFFFFFFF)
}
