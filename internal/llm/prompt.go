package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/smilior/kakeibo/internal/aggregate"
	"github.com/smilior/kakeibo/internal/compare"
	"github.com/smilior/kakeibo/internal/core"
	"github.com/smilior/kakeibo/internal/period"
)

// PeriodAnalysisData is everything the comparison prompt needs, already
// aggregated. The prompt never sees raw expenses.
type PeriodAnalysisData struct {
	Granularity        period.Granularity
	Comparison         compare.Comparison
	CurrentCategories  []aggregate.CategoryAggregate
	PreviousCategories []aggregate.CategoryAggregate
	Changes            []compare.CategoryChange
	Persons            []aggregate.PersonAggregate
}

// BuildPeriodAnalysisPrompt renders the 家計コーチ comparison prompt. Output
// mirrors the product's established format: current totals, the five
// biggest category movers, previous totals, and the per-person split.
func BuildPeriodAnalysisPrompt(d PeriodAnalysisData) string {
	cur, prev := "今月", "先月"
	if d.Granularity == period.Week {
		cur, prev = "今週", "先週"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## 役割\n家計コーチとして、%sと%sの支出を比較分析してください。\n\n", cur, prev)
	b.WriteString("## 出力ルール\n")
	b.WriteString("- 100〜200文字で簡潔に\n")
	b.WriteString("- 良かった点と改善点を1つずつ含める\n")
	b.WriteString("- 具体的な数字（金額、増減率）を含める\n")
	b.WriteString("- 前向きな締めくくり\n\n")

	c := d.Comparison
	sign := "+"
	if c.Diff < 0 {
		sign = "-"
	}
	fmt.Fprintf(&b, "## %sの支出データ\n", cur)
	fmt.Fprintf(&b, "- 合計: %s\n", core.FormatYen(c.CurrentTotal))
	fmt.Fprintf(&b, "- %s比: %s%s (%s%d%%)\n\n", prev, sign, core.FormatYen(abs64(c.Diff)), sign, absInt(c.DiffPercent))

	b.WriteString("### カテゴリ別\n")
	for _, a := range d.CurrentCategories {
		fmt.Fprintf(&b, "- %s: %s (%d回)\n", a.CategoryName, core.FormatYen(a.TotalAmount), a.Count)
	}

	b.WriteString("\n### カテゴリ別増減\n")
	movers := 0
	for _, ch := range d.Changes {
		if ch.Change == 0 {
			continue
		}
		s := "+"
		if ch.Change < 0 {
			s = "-"
		}
		fmt.Fprintf(&b, "- %s: %s%s (%s%d%%)\n", ch.CategoryName, s, core.FormatYen(abs64(ch.Change)), s, absInt(ch.ChangePercent))
		movers++
		if movers == 5 {
			break
		}
	}

	fmt.Fprintf(&b, "\n### %sの支出\n", prev)
	fmt.Fprintf(&b, "- 合計: %s\n", core.FormatYen(c.PreviousTotal))
	for _, a := range d.PreviousCategories {
		fmt.Fprintf(&b, "- %s: %s\n", a.CategoryName, core.FormatYen(a.TotalAmount))
	}

	fmt.Fprintf(&b, "\n### ユーザー別（%s）\n", cur)
	for _, p := range d.Persons {
		fmt.Fprintf(&b, "- %s: %s (%d回)\n", p.Label, core.FormatYen(p.TotalAmount), p.Count)
	}

	b.WriteString("\n上記データを踏まえ、100〜200文字で分析結果を出力してください。")
	return b.String()
}

const defaultAdviceSystemPrompt = `あなたは家計管理の「コーチ」です。ユーザーの支出を減らす目標達成をサポートします。

## あなたの役割
- コーチとして目標達成に向けた具体的なアドバイスをする
- 外食・カフェ、趣味・娯楽、衝動買いに特に注目する
- 家族メンバーごとの支出バランスにも触れる
- 短く的確に（1-2文、60文字以内）

## 出力ルール
1. コーチとして具体的な行動を1つ提案する
2. 数字を含める（金額や回数）
3. 回数ルールが上限に近い場合は優先的に警告
4. 家族メンバー間でバランスが偏っている場合は触れる
5. 曜日に応じたアドバイス（金曜→週末計画、月曜→振り返り）
6. 「！」を使って前向きに締める

出力は1-2文のみ。前置きや説明は不要。`

// AdviceData feeds the one-shot daily coaching prompt. SystemPrompt is the
// household's custom instruction block; empty means the built-in default.
type AdviceData struct {
	SystemPrompt      string
	Total             int64
	SubscriptionTotal int64
	Categories        []aggregate.CategoryAggregate
	Persons           []aggregate.PersonAggregate
	Rules             []aggregate.RuleUsage
	Today             time.Time
	PeriodStart       time.Time
	PeriodEnd         time.Time
}

func BuildAdvicePrompt(d AdviceData) string {
	system := d.SystemPrompt
	if strings.TrimSpace(system) == "" {
		system = defaultAdviceSystemPrompt
	}

	var b strings.Builder
	b.WriteString(system)
	b.WriteString("\n\n## 今月の支出データ\n")
	fmt.Fprintf(&b, "- 総支出: %s\n", core.FormatYen(d.Total))
	fmt.Fprintf(&b, "- サブスク月額: %s\n\n", core.FormatYen(d.SubscriptionTotal))

	b.WriteString("### カテゴリ別\n")
	for _, a := range d.Categories {
		fmt.Fprintf(&b, "- %s: %s (%d回)\n", a.CategoryName, core.FormatYen(a.TotalAmount), a.Count)
	}

	b.WriteString("\n### 家族別支出\n")
	for _, p := range d.Persons {
		fmt.Fprintf(&b, "- %s: %s (%d回)\n", p.Label, core.FormatYen(p.TotalAmount), p.Count)
	}

	b.WriteString("\n## 回数ルールの状況\n")
	if len(d.Rules) == 0 {
		b.WriteString("- ルール設定なし\n")
	}
	for _, r := range d.Rules {
		status := fmt.Sprintf("残り%d回", r.Remaining)
		switch {
		case r.Remaining <= 0:
			status = "⚠️ 上限到達！"
		case r.Remaining == 1:
			status = "⚠️ あと1回！"
		}
		fmt.Fprintf(&b, "- %s: %d/%d回 (%s)\n", r.CategoryName, r.CurrentCount, r.MonthlyLimit, status)
	}

	b.WriteString("\n## 今日のコンテキスト\n")
	fmt.Fprintf(&b, "- 日付: %s（%s）\n", d.Today.Format("2006-01-02"), japaneseWeekday(d.Today))
	fmt.Fprintf(&b, "- 計測期間: %s 〜 %s\n", d.PeriodStart.Format("2006-01-02"), d.PeriodEnd.Format("2006-01-02"))
	day := int(d.Today.Sub(d.PeriodStart).Hours()/24) + 1
	left := int(d.PeriodEnd.Sub(d.Today).Hours() / 24)
	fmt.Fprintf(&b, "- 期間の%d日目（残り%d日）\n", day, left)
	return b.String()
}

// diaryThemes rotates a weekday-keyed writing theme, Sunday first.
var diaryThemes = [7][2]string{
	{"未来への投資", "将来の夢や目標に向けて、今日からできることを考えましょう。"},
	{"今週の目標設定", "新しい週の始まりです。今週の節約目標を一緒に立てましょう。具体的な数字を含めた目標を提案してください。"},
	{"節約Tips", "日常生活で使える実践的な節約テクニックを紹介してください。"},
	{"お金の知識", "お金に関する豆知識やベストプラクティスを楽しく教えてください。"},
	{"夫婦のお金の話", "夫婦でお金の話をすることの大切さや、コミュニケーションのコツを伝えてください。"},
	{"週末の計画", "週末の出費に備えて、賢くお金を使う計画を立てましょう。"},
	{"振り返りと成果確認", "今週の支出を振り返り、良かった点を褒め、改善点を優しく提案してください。"},
}

func BuildDiaryPrompt(d AdviceData) string {
	theme := diaryThemes[int(d.Today.Weekday())]

	var b strings.Builder
	b.WriteString("あなたは家計管理をサポートする「親友」のような存在です。\n")
	b.WriteString("友達に話しかけるような親しみやすい口調で、毎日の日記を書いてください。\n\n")
	b.WriteString("## あなたの役割\n")
	b.WriteString("- 夫婦の共通目標を意識させる\n")
	b.WriteString("- お金の知識を楽しく教える\n")
	b.WriteString("- モチベーションを維持する\n")
	b.WriteString("- 成果を一緒に喜ぶ\n")
	b.WriteString("- 小さな努力も見逃さず褒める\n\n")
	fmt.Fprintf(&b, "## 今日のテーマ\n%s\n\n", theme[0])
	fmt.Fprintf(&b, "## 指示\n%s\n\n", theme[1])
	b.WriteString("## 出力ルール\n")
	b.WriteString("1. 300〜500文字程度で書く\n")
	b.WriteString("2. 「〜だね」「〜だよ」など親しみやすい口調を使う\n")
	b.WriteString("3. 具体的な数字や金額を含める\n")
	b.WriteString("4. 絵文字は使わない（！や♪は使ってOK）\n")
	b.WriteString("5. 前向きで励みになる内容にする\n\n")

	b.WriteString("## 今月の支出データ\n")
	fmt.Fprintf(&b, "- 総支出: %s\n", core.FormatYen(d.Total))
	fmt.Fprintf(&b, "- サブスク月額合計: %s\n\n", core.FormatYen(d.SubscriptionTotal))

	b.WriteString("### カテゴリ別\n")
	for i, a := range d.Categories {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "- %s: %s (%d回)\n", a.CategoryName, core.FormatYen(a.TotalAmount), a.Count)
	}

	b.WriteString("\n### 夫婦別支出\n")
	for _, p := range d.Persons {
		fmt.Fprintf(&b, "- %s: %s (%d回)\n", p.Label, core.FormatYen(p.TotalAmount), p.Count)
	}

	b.WriteString("\n## 今日の情報\n")
	fmt.Fprintf(&b, "- 日付: %s（%s）\n", d.Today.Format("2006-01-02"), japaneseWeekday(d.Today))
	b.WriteString("\n出力は日記本文のみ。前置きや説明は不要。")
	return b.String()
}

var weekdayNames = [7]string{"日", "月", "火", "水", "木", "金", "土"}

func japaneseWeekday(t time.Time) string {
	return weekdayNames[int(t.Weekday())] + "曜日"
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
