package llm

import (
	"fmt"
	"strings"

	"TradingCore/internal/model"
)

const classifyTemplate = `Você é um analista de ações da B3.
Analise o texto a seguir sobre %[1]s.

Texto:
"""%[2]s"""

Responda EXCLUSIVAMENTE em JSON, no seguinte formato:

{
  "relevante": true ou false (se é relevante para investidores de %[1]s),
  "relevancia": número de 0 a 10 (quão material é a notícia para a tese de investimento de %[1]s),
  "resumo": "resuma em 1-2 frases o principal do texto focado na ação %[1]s",
  "sentimento": número entre -1 e 1 (-1=muito negativo, 0=neutro, 1=muito positivo)
}

Não escreva nada fora do JSON.`

const compactTemplate = `Você é um analista de ações. Compile as notícias abaixo sobre %s em um resumo MUITO compacto de no máximo 2 linhas.
Foque no que é mais relevante para o investidor.

Notícias:
%s

Responda apenas com o resumo de 2 linhas, sem formatação adicional.`

const consolidateTemplate = `Você é um analista de ações. Com base nas notícias abaixo sobre %s, consolide em dois parágrafos curtos:
os pontos positivos e os pontos de atenção (negativos) para o investidor.

Notícias:
%s

Responda EXCLUSIVAMENTE em JSON, no seguinte formato:

{
  "positivo": "parágrafo com os pontos positivos, ou vazio se não houver",
  "negativo": "parágrafo com os pontos de atenção, ou vazio se não houver"
}

Não escreva nada fora do JSON.`

const contextTemplate = `Você é um analista sênior de Equity Research da B3.
Sua tarefa é criar um guia de contexto estratégico para a empresa %s.
Este guia será usado por outra IA para filtrar e analisar notícias diárias.

Por favor, forneça as seguintes informações de forma concisa e estruturada:

1. MODELO DE NEGÓCIO: Como a empresa ganha dinheiro? Quais as principais linhas de receita?
2. KPIs CHAVE: O que move o resultado? (Ex: Preço de commodity, Câmbio, IPCA, Selic, Inadimplência, etc.)
3. TESES DE INVESTIMENTO: Qual o momento atual? (Crescimento, Dividendos, Turnaround?)
4. RISCOS PRINCIPAIS: O que mais pode afetar negativamente a tese?
5. O QUE BUSCAR EM NOTÍCIAS: O que é realmente impacto e o que é apenas ruído para esta empresa específica?

Limite a resposta a no máximo 500 palavras. Seja direto e focado no mercado financeiro.`

// withContext prepends the strategic context block, verbatim, when present.
func withContext(strategic, prompt string) string {
	if strings.TrimSpace(strategic) == "" {
		return prompt
	}
	return "Contexto estratégico da empresa:\n" + strategic + "\n\n" + prompt
}

func classifyPrompt(ticker model.Ticker, body, strategic string) string {
	return withContext(strategic, fmt.Sprintf(classifyTemplate, ticker, body))
}

func bulletList(texts []string) string {
	var b strings.Builder
	for _, t := range texts {
		if t = strings.TrimSpace(t); t != "" {
			b.WriteString("- ")
			b.WriteString(t)
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func compactPrompt(ticker model.Ticker, bullets, strategic string) string {
	return withContext(strategic, fmt.Sprintf(compactTemplate, ticker, bullets))
}

func consolidatePrompt(ticker model.Ticker, bullets, strategic string) string {
	return withContext(strategic, fmt.Sprintf(consolidateTemplate, ticker, bullets))
}

func contextPrompt(ticker model.Ticker) string {
	return fmt.Sprintf(contextTemplate, ticker)
}
