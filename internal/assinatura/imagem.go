package assinatura

import (
	"bytes"
	"errors"
	"image"
	"strings"

	_ "image/gif"  // registra decoder GIF
	_ "image/jpeg" // registra decoder JPEG
	_ "image/png"  // registra decoder PNG

	_ "golang.org/x/image/bmp"  // registra decoder BMP
	_ "golang.org/x/image/webp" // registra decoder WebP
)

var (
	// ErrImagemInvalida indica conteúdo fora da lista de tipos aceitos.
	ErrImagemInvalida = errors.New("imagem de assinatura inválida")
	// ErrDocumentoInvalido indica bytes que não são um PDF.
	ErrDocumentoInvalido = errors.New("documento inválido")
	// ErrSemPosicoes indica tentativa de aplicar assinatura sem nenhuma marca.
	ErrSemPosicoes = errors.New("nenhuma posição de assinatura definida")
)

// Tipos aceitos para a imagem de assinatura: rasters comuns e SVG.
const (
	TipoPNG  = "image/png"
	TipoJPEG = "image/jpeg"
	TipoGIF  = "image/gif"
	TipoWebP = "image/webp"
	TipoBMP  = "image/bmp"
	TipoSVG  = "image/svg+xml"
)

var magicRaster = []struct {
	tipo  string
	magic []byte
}{
	{TipoPNG, []byte("\x89PNG\r\n\x1a\n")},
	{TipoJPEG, []byte("\xff\xd8\xff")},
	{TipoGIF, []byte("GIF8")},
	{TipoBMP, []byte("BM")},
}

// DetectarTipoImagem identifica o tipo real pelos bytes iniciais. O tipo
// declarado pelo cliente nunca é consultado. Conteúdo PDF ou PKCS#7 é
// recusado antes de qualquer outra checagem.
func DetectarTipoImagem(conteudo []byte) (string, error) {
	if len(conteudo) < 8 {
		return "", ErrImagemInvalida
	}

	if pareceAssinaturaDigital(conteudo) {
		return "", ErrImagemInvalida
	}

	for _, m := range magicRaster {
		if bytes.HasPrefix(conteudo, m.magic) {
			return m.tipo, nil
		}
	}

	// WebP: RIFF....WEBP
	if bytes.HasPrefix(conteudo, []byte("RIFF")) && len(conteudo) >= 12 && bytes.Equal(conteudo[8:12], []byte("WEBP")) {
		return TipoWebP, nil
	}

	if pareceSVG(conteudo) {
		return TipoSVG, nil
	}

	return "", ErrImagemInvalida
}

// ValidarImagem sniffa o tipo e, para rasters, confirma que o arquivo
// decodifica com dimensões positivas.
func ValidarImagem(conteudo []byte) (string, error) {
	tipo, err := DetectarTipoImagem(conteudo)
	if err != nil {
		return "", err
	}

	if tipo == TipoSVG {
		return tipo, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(conteudo))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 {
		return "", ErrImagemInvalida
	}

	return tipo, nil
}

// pareceAssinaturaDigital detecta PDF e PKCS#7 (DER ou PEM), os formatos que
// jamais podem ser gravados como imagem de assinatura.
func pareceAssinaturaDigital(conteudo []byte) bool {
	if bytes.HasPrefix(conteudo, []byte("%PDF-")) {
		return true
	}
	if bytes.Contains(conteudo[:min(len(conteudo), 256)], []byte("-----BEGIN PKCS7-----")) {
		return true
	}
	// DER SignedData: SEQUENCE contendo o OID 1.2.840.113549.1.7.2 logo no início.
	if conteudo[0] == 0x30 {
		oidSignedData := []byte{0x06, 0x09, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d, 0x01, 0x07, 0x02}
		if bytes.Contains(conteudo[:min(len(conteudo), 32)], oidSignedData) {
			return true
		}
	}
	return false
}

func pareceSVG(conteudo []byte) bool {
	head := conteudo[:min(len(conteudo), 1024)]
	trimmed := bytes.TrimLeft(head, " \t\r\n\xef\xbb\xbf")
	if !bytes.HasPrefix(trimmed, []byte("<")) {
		return false
	}
	lower := strings.ToLower(string(trimmed))
	return strings.Contains(lower, "<svg")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
