package utils

import (
	"encoding/binary"
	"fmt"

	"github.com/near/borsh-go"
)

// EventHeaderSize 事件类型前缀长度
const EventHeaderSize = 4

// EncodeEvent 将事件编码为带事件类型前缀的二进制数据：
// - 前 4 字节为事件类型（uint32，小端序）
// - 后续为 borsh 序列化数据
func EncodeEvent(eventType uint32, payload any) ([]byte, error) {
	body, err := borsh.Serialize(payload)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: serialize %T: %w", payload, err)
	}
	buf := make([]byte, EventHeaderSize, EventHeaderSize+len(body))
	binary.LittleEndian.PutUint32(buf, eventType)
	return append(buf, body...), nil
}

// DecodeEventType 读取事件类型前缀，返回类型与 payload
func DecodeEventType(data []byte) (uint32, []byte, error) {
	if len(data) < EventHeaderSize {
		return 0, nil, fmt.Errorf("DecodeEventType: message too short (%d bytes)", len(data))
	}
	return binary.LittleEndian.Uint32(data[:EventHeaderSize]), data[EventHeaderSize:], nil
}

// DecodeEvent 校验事件类型并把 payload 反序列化到 out（指针）
func DecodeEvent(data []byte, wantType uint32, out any) error {
	eventType, body, err := DecodeEventType(data)
	if err != nil {
		return err
	}
	if eventType != wantType {
		return fmt.Errorf("DecodeEvent: event type %d, want %d", eventType, wantType)
	}
	if err := borsh.Deserialize(out, body); err != nil {
		return fmt.Errorf("DecodeEvent: deserialize %T: %w", out, err)
	}
	return nil
}
