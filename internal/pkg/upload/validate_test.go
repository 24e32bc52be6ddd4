package upload

import (
	"strings"
	"testing"
)

func TestValidateAttachmentBySniff(t *testing.T) {
	jpegHead := append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, make([]byte, 12)...)
	pngHead := append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 8)...)
	pdfHead := []byte("%PDF-1.7\n%binder")
	htmlHead := []byte("<!DOCTYPE html><html><body>")

	tests := []struct {
		name     string
		filename string
		head     []byte
		wantErr  bool
	}{
		{"jpeg ok", "letter.jpg", jpegHead, false},
		{"png ok", "photo.png", pngHead, false},
		{"pdf ok", "will.pdf", pdfHead, false},
		{"extension not allowed", "script.exe", jpegHead, true},
		{"html disguised as jpg", "evil.jpg", htmlHead, true},
		{"svg rejected", "vector.svg", []byte("<?xml version=\"1.0\"?><svg>"), true},
		{"octet stream with allowed ext", "voice.m4a", make([]byte, 16), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mime, err := ValidateAttachmentBySniff(tt.filename, tt.head)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got mime %q", mime)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if mime == "" {
				t.Fatal("expected detected mime type")
			}
		})
	}
}

func TestValidateAttachmentErrorMentionsFormats(t *testing.T) {
	_, err := ValidateAttachmentBySniff("notes.txt", []byte("plain text"))
	if err == nil {
		t.Fatal("expected error for txt file")
	}
	if !strings.Contains(err.Error(), "PDF") {
		t.Fatalf("error should list supported formats, got: %v", err)
	}
}
