package pdf

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	_ "image/gif" // registra decoder GIF
	_ "image/png" // registra decoder PNG

	_ "golang.org/x/image/bmp"  // registra decoder BMP
	_ "golang.org/x/image/webp" // registra decoder WebP
	"sort"
	"strconv"
	"strings"

	dpdf "github.com/digitorus/pdf"

	"github.com/fluxodoc/aprovacao/internal/assinatura"
)

// nome do XObject de imagem registrado nos recursos da página
const nomeCarimbo = "FxAssin"

// Estampar grava a imagem nas páginas marcadas via atualização incremental:
// os bytes originais permanecem intactos no início do arquivo e os objetos
// novos (imagem, streams de conteúdo e páginas atualizadas) são apensados
// com uma nova seção xref.
func (s *Stamper) Estampar(ctx context.Context, original []byte, imagem []byte, marcas []assinatura.Marca) ([]byte, error) {
	rdr, err := abrir(original)
	if err != nil {
		return nil, err
	}

	jpegData, wpx, hpx, err := normalizarJPEG(imagem)
	if err != nil {
		return nil, err
	}

	trailer := rdr.Trailer()
	nextID := int(trailer.Key("Size").Int64())
	if nextID == 0 {
		return nil, ErrPDFInvalido
	}

	rootPtr := trailer.Key("Root").GetPtr()
	rootID, rootGen := int(rootPtr.GetID()), int(rootPtr.GetGen())
	if rootID == 0 {
		return nil, ErrPDFInvalido
	}

	prevXref, err := ultimoStartXref(original)
	if err != nil {
		return nil, err
	}

	out := bytes.NewBuffer(make([]byte, 0, len(original)+len(jpegData)+4096))
	out.Write(original)
	if original[len(original)-1] != '\n' {
		out.WriteByte('\n')
	}

	var entradas []xrefEntrada

	imgID := nextID
	nextID++
	escreverObjeto(out, &entradas, imgID, 0, imagemXObject(jpegData, wpx, hpx))

	for _, m := range marcas {
		if m.Pagina < 1 || m.Pagina > rdr.NumPage() {
			return nil, fmt.Errorf("pdf: página %d inexistente", m.Pagina)
		}

		pagina := rdr.Page(m.Pagina)
		paginaPtr := pagina.V.GetPtr()
		paginaID, paginaGen := int(paginaPtr.GetID()), int(paginaPtr.GetGen())
		if paginaID == 0 {
			return nil, ErrPDFInvalido
		}

		contID := nextID
		nextID++
		desenho := fmt.Sprintf("q %s 0 0 %s %s %s cm /%s Do Q",
			num(m.Largura), num(m.Altura), num(m.X), num(m.Y), nomeCarimbo)
		escreverObjeto(out, &entradas, contID, 0, streamConteudo(desenho))

		novoDict, err := paginaAtualizada(pagina, contID, imgID)
		if err != nil {
			return nil, err
		}
		escreverObjeto(out, &entradas, paginaID, paginaGen, []byte(novoDict))
	}

	xrefOffset := out.Len()
	escreverXref(out, entradas)
	escreverTrailer(out, nextID, rootID, rootGen, trailer, prevXref, xrefOffset)

	return out.Bytes(), nil
}

type xrefEntrada struct {
	id     int
	gen    int
	offset int
}

func escreverObjeto(out *bytes.Buffer, entradas *[]xrefEntrada, id, gen int, corpo []byte) {
	*entradas = append(*entradas, xrefEntrada{id: id, gen: gen, offset: out.Len()})
	fmt.Fprintf(out, "%d %d obj\n", id, gen)
	out.Write(corpo)
	out.WriteString("\nendobj\n")
}

func imagemXObject(jpegData []byte, wpx, hpx int) []byte {
	var b bytes.Buffer
	b.WriteString("<<\n  /Type /XObject\n  /Subtype /Image\n")
	fmt.Fprintf(&b, "  /Width %d\n  /Height %d\n", wpx, hpx)
	b.WriteString("  /ColorSpace /DeviceRGB\n  /BitsPerComponent 8\n  /Filter /DCTDecode\n")
	fmt.Fprintf(&b, "  /Length %d\n>>\nstream\n", len(jpegData))
	b.Write(jpegData)
	b.WriteString("\nendstream")
	return b.Bytes()
}

func streamConteudo(desenho string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "<< /Length %d >>\nstream\n%s\nendstream", len(desenho)+1, desenho+"\n")
	return b.Bytes()
}

// paginaAtualizada reserializa o dicionário da página preservando as chaves
// existentes, apensando o novo stream de conteúdo e registrando o XObject da
// imagem nos recursos.
func paginaAtualizada(pagina dpdf.Page, contID, imgID int) (string, error) {
	v := pagina.V
	var b strings.Builder
	b.WriteString("<<")

	for _, k := range v.Keys() {
		if k == "Contents" || k == "Resources" {
			continue
		}
		b.WriteString(" /" + k + " " + refOuInline(v, v.Key(k)))
	}

	b.WriteString(" /Contents [")
	conts := v.Key("Contents")
	switch conts.Kind() {
	case dpdf.Array:
		for i := 0; i < conts.Len(); i++ {
			el := conts.Index(i)
			ptr := el.GetPtr()
			if ptr.GetID() == 0 {
				return "", ErrPDFInvalido
			}
			fmt.Fprintf(&b, "%d %d R ", int(ptr.GetID()), int(ptr.GetGen()))
		}
	case dpdf.Stream:
		ptr := conts.GetPtr()
		if ptr.GetID() == 0 {
			return "", ErrPDFInvalido
		}
		fmt.Fprintf(&b, "%d %d R ", int(ptr.GetID()), int(ptr.GetGen()))
	case dpdf.Null:
		// página sem conteúdo: só o carimbo
	default:
		return "", ErrPDFInvalido
	}
	fmt.Fprintf(&b, "%d 0 R]", contID)

	b.WriteString(" /Resources << ")
	res := pagina.V.Key("Resources")
	if res.Kind() == dpdf.Dict {
		for _, k := range res.Keys() {
			if k == "XObject" {
				continue
			}
			b.WriteString("/" + k + " " + refOuInline(res, res.Key(k)) + " ")
		}
	}
	b.WriteString("/XObject << ")
	if res.Kind() == dpdf.Dict {
		xo := res.Key("XObject")
		if xo.Kind() == dpdf.Dict {
			for _, k := range xo.Keys() {
				b.WriteString("/" + k + " " + refOuInline(xo, xo.Key(k)) + " ")
			}
		}
	}
	fmt.Fprintf(&b, "/%s %d 0 R >> >>", nomeCarimbo, imgID)

	b.WriteString(" >>")
	return b.String(), nil
}

// refOuInline devolve "N G R" quando o valor veio de um objeto indireto
// próprio, ou a serialização inline quando o valor mora no dicionário pai.
func refOuInline(pai, v dpdf.Value) string {
	vp := v.GetPtr()
	pp := pai.GetPtr()
	if vp.GetID() != 0 && (vp.GetID() != pp.GetID() || vp.GetGen() != pp.GetGen()) {
		return fmt.Sprintf("%d %d R", int(vp.GetID()), int(vp.GetGen()))
	}
	return v.String()
}

func escreverXref(out *bytes.Buffer, entradas []xrefEntrada) {
	sort.Slice(entradas, func(i, j int) bool { return entradas[i].id < entradas[j].id })

	out.WriteString("xref\n")
	for i := 0; i < len(entradas); {
		j := i
		for j+1 < len(entradas) && entradas[j+1].id == entradas[j].id+1 {
			j++
		}
		fmt.Fprintf(out, "%d %d\n", entradas[i].id, j-i+1)
		for _, e := range entradas[i : j+1] {
			fmt.Fprintf(out, "%010d %05d n \n", e.offset, e.gen)
		}
		i = j + 1
	}
}

func escreverTrailer(out *bytes.Buffer, size, rootID, rootGen int, trailer dpdf.Value, prevXref int64, xrefOffset int) {
	fmt.Fprintf(out, "trailer\n<< /Size %d /Root %d %d R /Prev %d", size, rootID, rootGen, prevXref)

	id := trailer.Key("ID")
	if !id.IsNull() && id.Len() == 2 {
		id0 := hex.EncodeToString([]byte(id.Index(0).RawString()))
		id1 := hex.EncodeToString([]byte(id.Index(1).RawString()))
		fmt.Fprintf(out, " /ID [<%s> <%s>]", id0, id1)
	}

	fmt.Fprintf(out, " >>\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
}

// ultimoStartXref localiza o offset da última seção xref do arquivo.
func ultimoStartXref(original []byte) (int64, error) {
	idx := bytes.LastIndex(original, []byte("startxref"))
	if idx < 0 {
		return 0, ErrPDFInvalido
	}

	resto := original[idx+len("startxref"):]
	campos := strings.Fields(string(resto[:min(len(resto), 64)]))
	if len(campos) == 0 {
		return 0, ErrPDFInvalido
	}

	off, err := strconv.ParseInt(campos[0], 10, 64)
	if err != nil || off <= 0 {
		return 0, ErrPDFInvalido
	}
	return off, nil
}

// normalizarJPEG converte a imagem validada para JPEG RGB, achatando
// transparência sobre fundo branco.
func normalizarJPEG(imagem []byte) ([]byte, int, int, error) {
	if bytes.HasPrefix(imagem, []byte("\xff\xd8\xff")) {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(imagem))
		if err != nil {
			return nil, 0, 0, err
		}
		return imagem, cfg.Width, cfg.Height, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imagem))
	if err != nil {
		return nil, 0, 0, err
	}

	bounds := img.Bounds()
	plano := image.NewRGBA(bounds)
	draw.Draw(plano, bounds, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(plano, bounds, img, bounds.Min, draw.Over)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, plano, &jpeg.Options{Quality: 90}); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), bounds.Dx(), bounds.Dy(), nil
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
