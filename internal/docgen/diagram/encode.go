package diagram

import (
	"bytes"
	"compress/flate"
	"fmt"
	"strings"
)

// PlantUML 服务端使用的 62+2 字符表，顺序与标准 base64 不同
const plantumlAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-_"

// EncodeSource 把图源压缩编码成 PlantUML 服务端可识别的 URL 片段
func EncodeSource(source string) (string, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", fmt.Errorf("failed to create deflate writer: %w", err)
	}
	if _, err := w.Write([]byte(source)); err != nil {
		return "", fmt.Errorf("failed to compress diagram source: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to flush diagram source: %w", err)
	}
	return encode64(buf.Bytes()), nil
}

func encode64(data []byte) string {
	var b strings.Builder
	b.Grow((len(data) + 2) / 3 * 4)
	for i := 0; i < len(data); i += 3 {
		var b1, b2, b3 byte
		b1 = data[i]
		if i+1 < len(data) {
			b2 = data[i+1]
		}
		if i+2 < len(data) {
			b3 = data[i+2]
		}
		b.WriteByte(plantumlAlphabet[b1>>2])
		b.WriteByte(plantumlAlphabet[((b1&0x03)<<4)|(b2>>4)])
		b.WriteByte(plantumlAlphabet[((b2&0x0F)<<2)|(b3>>6)])
		b.WriteByte(plantumlAlphabet[b3&0x3F])
	}
	return b.String()
}
