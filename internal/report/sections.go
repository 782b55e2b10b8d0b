package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/Eroleice/Quant-Cat/internal/modules/attribution"
	"github.com/Eroleice/Quant-Cat/internal/modules/breadth"
	"github.com/Eroleice/Quant-Cat/internal/modules/style"
)

const bodyLineSpacing = 1.5

// MarketSection builds "今日市场": the breadth chart with its summary
// sentence and the style index table.
func MarketSection(h breadth.Histogram, chartPath string, ranking style.Ranking) Section {
	s := Section{Title: "今日市场"}

	s.AddHeading(2, "股票涨跌")
	s.AddImage(chartPath)
	s.AddParagraph(Paragraph{
		Runs: []Run{
			{Text: "今日，共有 "},
			{Text: fmt.Sprintf("%d 只股票上涨， ", h.Increase)},
			{Text: fmt.Sprintf("%d 只股票下跌， ", h.Decrease)},
			{Text: fmt.Sprintf("%d 只股票持平或停牌。", h.Flat)},
		},
		LineSpacing: bodyLineSpacing,
	})

	s.AddHeading(2, "指数涨跌统计")
	table := Table{Header: []string{"指数名称", "指数收盘价", "涨跌幅", "成交额（亿元）"}}
	for _, e := range ranking {
		table.Rows = append(table.Rows, []string{
			e.Name,
			Thousands(e.Close, 2),
			e.ChangePct,
			Thousands(e.Amount, 2),
		})
	}
	s.AddTable(table)

	return s
}

// StockSection builds "个股分析" for one attributed security.
func StockSection(r *attribution.Result, chartPath string) Section {
	s := Section{Title: "个股分析"}

	s.AddHeading(2, "Fama-French 三因子归因分析")
	s.AddText(fmt.Sprintf("%s (%s) 的归因结果：", r.Security.Name, r.Security.ShortCode()))
	s.AddText(fmt.Sprintf("市场风险因子：%.4f", r.MarketLoading))
	s.AddText(fmt.Sprintf("规模风险因子：%.4f", r.SizeLoading))
	s.AddText(fmt.Sprintf("账面市值比风险因子：%.4f", r.ValueLoading))
	s.AddText(fmt.Sprintf("回归公式：%s（R² = %.4f，样本 %d 个月）", r.Formula(), r.RSquared, len(r.Rows)))
	s.AddImage(chartPath)

	return s
}

// DisclaimerSection builds "声明".
func DisclaimerSection() Section {
	s := Section{Title: "声明"}

	s.AddParagraph(Paragraph{
		Runs: []Run{
			{Text: "本报告内容由自动化程序制作而成，基础数据来源于"},
			{Text: "公开数据", Underline: true},
			{Text: "和"},
			{Text: "授权数据", Underline: true},
			{Text: "，本文作者及程序作者均不对数据准确性和时效性做出任何保证。"},
		},
		Bullet:      true,
		LineSpacing: bodyLineSpacing,
	})
	s.AddParagraph(Paragraph{
		Runs: []Run{
			{Text: "本程序仅用于学习及研究使用，不构成任何投资建议，因本文内容做出的投资决策导致的损失，本文作者及程序作者概不负责。"},
		},
		Bullet:      true,
		LineSpacing: bodyLineSpacing,
	})

	return s
}

// Thousands formats v with a fixed number of decimals and comma
// thousands separators. Values that round to zero print without a sign.
func Thousands(v float64, decimals int) string {
	scale := math.Pow10(decimals)
	v = math.Round(v*scale) / scale
	return humanize.FormatFloat("#,###."+strings.Repeat("#", decimals), v)
}
