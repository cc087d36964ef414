// Package wire decodifica i blob di metadati di WhatsApp, codificati in un
// formato tag-length-value simile al wire format di protobuf. Il formato non è
// documentato: lo scanner è tollerante e non fallisce mai su input malformati.
package wire

import (
	"google.golang.org/protobuf/encoding/protowire"
)

// Field è un campo length-delimited estratto da un blob di metadati
type Field struct {
	Tag    int
	Length int
	Data   []byte
}

// Limite di sicurezza sulla lunghezza dichiarata di un campo
const maxFieldLength = 1 << 20

// Extract scandisce il blob e restituisce tutti i campi length-delimited
// (wire type 2). I byte che non formano un record valido vengono saltati uno
// alla volta: un campo corrotto non interrompe mai la scansione.
func Extract(blob []byte) []Field {
	var fields []Field
	i := 0
	for i+1 < len(blob) {
		b := blob[i]
		if b&0x07 == 2 {
			// La lunghezza è un varint (protowire limita già a 10 byte)
			length, n := protowire.ConsumeVarint(blob[i+1:])
			if n > 0 && length <= maxFieldLength {
				start := i + 1 + n
				end := start + int(length)
				if end >= start && end <= len(blob) {
					fields = append(fields, Field{
						Tag:    int(b >> 3),
						Length: int(length),
						Data:   blob[start:end],
					})
					i = end
					continue
				}
			}
		}
		// Wire type non modellato o lunghezza fuori range: avanza di un byte
		i++
	}
	return fields
}

// Tagged restituisce i soli campi con il tag richiesto
func Tagged(blob []byte, tag int) []Field {
	var out []Field
	for _, f := range Extract(blob) {
		if f.Tag == tag {
			out = append(out, f)
		}
	}
	return out
}
