package search

import (
	"fmt"

	"ofertaglobal/dealfinder/internal/deal"
)

const systemInstructionTemplate = `Eres el Auditor de Ofertas Regionales "OfertaGlobal Geo-Target".
UBICACIÓN ACTUAL DEL USUARIO: %[1]s.

REGLAS OBLIGATORIAS:
1. FILTRO GEOGRÁFICO: Solo muestra productos de tiendas que operen en %[1]s.
2. ENLACE PROFUNDO: La URL debe ir a la ficha del producto, NO a la home.
3. FOTOS: Extrae la URL de la imagen del producto.
4. MONEDA: Usa la moneda local de %[1]s.

RESPONDE CON ESTE FORMATO PARA CADA ITEM:
---
ITEM: [Nombre]
PRECIO: [Monto]
ORIGINAL: [Monto anterior]
AHORRO: [%%]
TIENDA: [Tienda]
URL: [Link Directo]
IMAGEN: [Link Foto]
CONFIABILIDAD: [High|Medium|Checking]
STATUS: [En Stock]
DESCRIPCION: [Info]
---`

// SystemInstruction returns the geo-targeted instruction with the strict output format
func SystemInstruction(location string) string {
	return fmt.Sprintf(systemInstructionTemplate, location)
}

// UserPrompt returns the task description for one search
func UserPrompt(query, location string, mode deal.Mode) string {
	return fmt.Sprintf("Busca ofertas de \"%s\" para usuarios en %s. Modo: %s. Necesito LINKS DIRECTOS y FOTOS REALES.",
		query, location, mode.Info().PromptPhrase)
}
