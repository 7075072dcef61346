package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeCommand(t *testing.T) {
	tests := []struct {
		name string
		code CommandCode
		args []byte
		want []byte
	}{
		{
			name: "enter config",
			code: ConfigEnable,
			args: BuildEnterConfigArgs(),
			want: []byte{0xFF, 0x00, 0x01, 0x00},
		},
		{
			name: "leave config no args",
			code: ConfigDisable,
			args: nil,
			want: []byte{0xFE, 0x00},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EncodeCommand(tt.code, tt.args)
			if !bytes.Equal(got, tt.want) {
				t.Errorf("EncodeCommand() = % X, want % X", got, tt.want)
			}
		})
	}
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    Reply
		wantErr bool
	}{
		{
			name:    "success ack no data",
			payload: []byte{0xFF, 0x01, 0x00, 0x00},
			want:    Reply{Code: ConfigEnable, Status: StatusSuccess, Data: []byte{}},
		},
		{
			name:    "success ack with data",
			payload: []byte{0xA0, 0x01, 0x00, 0x00, 0xAA, 0xBB},
			want:    Reply{Code: FirmwareVersionCmd, Status: StatusSuccess, Data: []byte{0xAA, 0xBB}},
		},
		{
			name:    "failure status",
			payload: []byte{0x60, 0x01, 0x01, 0x00},
			want:    Reply{Code: ParametersWrite, Status: StatusFailure, Data: []byte{}},
		},
		{
			name:    "bad marker byte",
			payload: []byte{0xFF, 0x00, 0x00, 0x00},
			wantErr: true,
		},
		{
			name:    "too short",
			payload: []byte{0xFF, 0x01},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeReply(tt.payload)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Code != tt.want.Code || got.Status != tt.want.Status || !bytes.Equal(got.Data, tt.want.Data) {
				t.Errorf("DecodeReply() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReplyAckCode(t *testing.T) {
	r := Reply{Code: FirmwareVersionCmd}
	want := uint16(0xA0) | 0x0100
	if got := r.AckCode(); got != want {
		t.Errorf("AckCode() = 0x%04X, want 0x%04X", got, want)
	}
}

func TestBuildSetParametersArgs(t *testing.T) {
	got := BuildSetParametersArgs(8, 8, 5)
	want := []byte{
		0x00, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x01, 0x00, 0x08, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x05, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildSetParametersArgs() = % X, want % X", got, want)
	}
}

func TestBuildGateSensitivityArgsAllGates(t *testing.T) {
	got := BuildGateSensitivityArgs(GateSensitivityAllGates, 40, 40)
	want := []byte{
		0x00, 0x00, 0xFF, 0xFF, 0xFF, 0xFF,
		0x01, 0x00, 0x28, 0x00, 0x00, 0x00,
		0x02, 0x00, 0x28, 0x00, 0x00, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildGateSensitivityArgs() = % X, want % X", got, want)
	}
}

func TestBaudRateIndexFor(t *testing.T) {
	tests := []struct {
		rate    int
		want    BaudRateIndex
		wantErr bool
	}{
		{rate: 9600, want: BaudRate9600},
		{rate: 115200, want: BaudRate115200},
		{rate: 460800, want: BaudRate460800},
		{rate: 1000000, wantErr: true},
	}
	for _, tt := range tests {
		got, ok := BaudRateIndexFor(tt.rate)
		if tt.wantErr {
			if ok {
				t.Errorf("BaudRateIndexFor(%d) = %v, ok, want not ok", tt.rate, got)
			}
			continue
		}
		if !ok || got != tt.want {
			t.Errorf("BaudRateIndexFor(%d) = %v, %v, want %v, true", tt.rate, got, ok, tt.want)
		}
	}
}

func TestBuildBluetoothPasswordArgs(t *testing.T) {
	got, err := BuildBluetoothPasswordArgs("123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{'1', '2', '3', '4', '5', '6'}
	if !bytes.Equal(got, want) {
		t.Errorf("BuildBluetoothPasswordArgs() = % X, want % X", got, want)
	}
}

func TestBuildBluetoothPasswordArgsErrors(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{name: "too short", password: "12"},
		{name: "too long", password: "1234567"},
		{name: "non-ascii", password: "12345\xff"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildBluetoothPasswordArgs(tt.password); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestParseFirmwareVersionReply(t *testing.T) {
	// type=0x0001 big-endian, minor=0x04, major=0x02, revision=0x23022511 little-endian.
	data := []byte{0x00, 0x01, 0x04, 0x02, 0x11, 0x25, 0x02, 0x23}
	got, err := ParseFirmwareVersionReply(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := FirmwareVersionReply{Type: 1, Major: 2, Minor: 4, Revision: 0x23022511}
	if got != want {
		t.Errorf("ParseFirmwareVersionReply() = %+v, want %+v", got, want)
	}
}

func TestParseParametersReadReply(t *testing.T) {
	data := make([]byte, 24)
	data[0] = 0xAA
	data[1] = 8 // max gate
	data[2] = 8 // motion max gate
	data[3] = 8 // standstill max gate
	for i := 0; i < 9; i++ {
		data[4+i] = byte(50 - i*2)
		data[13+i] = byte(40 - i*2)
	}
	data[22] = 0x05
	data[23] = 0x00

	got, err := ParseParametersReadReply(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MaxDistanceGate != 8 || got.NoOneIdleDuration != 5 {
		t.Errorf("ParseParametersReadReply() = %+v", got)
	}
	if got.MotionSensitivity[0] != 50 || got.StandstillSensitivity[0] != 40 {
		t.Errorf("sensitivity arrays not parsed correctly: %+v", got)
	}
}

func TestParseParametersReadReplyBadHeader(t *testing.T) {
	data := make([]byte, 24)
	data[0] = 0x00
	if _, err := ParseParametersReadReply(data); err == nil {
		t.Fatal("expected error for bad header byte")
	}
}
