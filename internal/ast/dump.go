package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatExpr renders an expression as a fully parenthesised string.
// Used by `knox parse` and by tests to check precedence.
func (b *Builder) FormatExpr(id ExprID) string {
	var sb strings.Builder
	b.formatExpr(&sb, id)
	return sb.String()
}

func (b *Builder) formatExpr(sb *strings.Builder, id ExprID) {
	e := b.Exprs.Get(id)
	if e == nil {
		sb.WriteString("<nil>")
		return
	}
	switch e.Kind {
	case ExprIdent:
		d, _ := b.Exprs.Ident(id)
		sb.WriteString(d.Name)
	case ExprPath:
		d, _ := b.Exprs.Path(id)
		sb.WriteString(strings.Join(d.Segments, "::"))
	case ExprLit:
		d, _ := b.Exprs.Literal(id)
		switch d.Kind {
		case ExprLitString:
			sb.WriteString(strconv.Quote(d.Value))
		case ExprLitUnit:
			sb.WriteString("()")
		default:
			sb.WriteString(d.Value)
		}
	case ExprCall:
		d, _ := b.Exprs.Call(id)
		b.formatExpr(sb, d.Callee)
		sb.WriteByte('(')
		for i, a := range d.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			b.formatExpr(sb, a)
		}
		sb.WriteByte(')')
	case ExprField:
		d, _ := b.Exprs.Field(id)
		b.formatExpr(sb, d.Target)
		sb.WriteByte('.')
		sb.WriteString(d.Name)
	case ExprIf:
		d, _ := b.Exprs.If(id)
		sb.WriteString("if ")
		b.formatExpr(sb, d.Cond)
		sb.WriteByte(' ')
		b.formatExpr(sb, d.Then)
		if d.Else.IsValid() {
			sb.WriteString(" else ")
			b.formatExpr(sb, d.Else)
		}
	case ExprMatch:
		d, _ := b.Exprs.Match(id)
		sb.WriteString("match ")
		b.formatExpr(sb, d.Scrutinee)
		sb.WriteString(" {")
		for i, arm := range d.Arms {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte(' ')
			sb.WriteString(b.FormatPattern(arm.Pattern))
			sb.WriteString(" => ")
			b.formatExpr(sb, arm.Body)
		}
		sb.WriteString(" }")
	case ExprBinary:
		d, _ := b.Exprs.Binary(id)
		sb.WriteByte('(')
		b.formatExpr(sb, d.Left)
		sb.WriteString(" " + d.Op.String() + " ")
		b.formatExpr(sb, d.Right)
		sb.WriteByte(')')
	case ExprUnary:
		d, _ := b.Exprs.Unary(id)
		sb.WriteString("(" + d.Op.String())
		b.formatExpr(sb, d.Operand)
		sb.WriteByte(')')
	case ExprStructLit:
		d, _ := b.Exprs.StructLit(id)
		sb.WriteString(strings.Join(d.Path, "::"))
		sb.WriteString(" {")
		for i, f := range d.Fields {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(" " + f.Name + ": ")
			b.formatExpr(sb, f.Value)
		}
		sb.WriteString(" }")
	case ExprDeref:
		d, _ := b.Exprs.Deref(id)
		sb.WriteString("(*")
		b.formatExpr(sb, d.Operand)
		sb.WriteByte(')')
	case ExprRef:
		d, _ := b.Exprs.Ref(id)
		if d.Mutable {
			sb.WriteString("(&mut ")
		} else {
			sb.WriteString("(&")
		}
		b.formatExpr(sb, d.Operand)
		sb.WriteByte(')')
	case ExprBlock:
		d, _ := b.Exprs.Block(id)
		sb.WriteByte('{')
		for _, st := range d.Stmts {
			sb.WriteByte(' ')
			b.formatStmt(sb, st)
		}
		if d.Tail.IsValid() {
			sb.WriteByte(' ')
			b.formatExpr(sb, d.Tail)
		}
		sb.WriteString(" }")
	case ExprPropagate:
		d, _ := b.Exprs.Propagate(id)
		b.formatExpr(sb, d.Operand)
		sb.WriteByte('?')
	case ExprCtor:
		d, _ := b.Exprs.Ctor(id)
		sb.WriteString(d.Ctor.String())
		if d.Arg.IsValid() {
			sb.WriteByte('(')
			b.formatExpr(sb, d.Arg)
			sb.WriteByte(')')
		}
	}
}

func (b *Builder) formatStmt(sb *strings.Builder, id StmtID) {
	st := b.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case StmtLet:
		let := b.Stmts.Let(id)
		sb.WriteString("let ")
		if let.Mutable {
			sb.WriteString("mut ")
		}
		sb.WriteString(let.Name)
		if let.Type.IsValid() {
			sb.WriteString(": " + b.Types.String(let.Type))
		}
		sb.WriteString(" = ")
		b.formatExpr(sb, let.Value)
	case StmtAssign:
		as := b.Stmts.Assign(id)
		b.formatExpr(sb, as.Target)
		sb.WriteString(" = ")
		b.formatExpr(sb, as.Value)
	case StmtReturn:
		sb.WriteString("return")
		if v := b.Stmts.Return(id).Value; v.IsValid() {
			sb.WriteByte(' ')
			b.formatExpr(sb, v)
		}
	case StmtExpr:
		b.formatExpr(sb, b.Stmts.Expr(id).Expr)
	}
	sb.WriteByte(';')
}

// FormatPattern renders a match pattern.
func (b *Builder) FormatPattern(id PatID) string {
	p := b.Patterns.Get(id)
	if p == nil {
		return "<nil>"
	}
	switch p.Kind {
	case PatLit:
		switch p.Lit {
		case ExprLitString:
			return strconv.Quote(p.LitValue)
		case ExprLitUnit:
			return "()"
		default:
			return p.LitValue
		}
	case PatRecord:
		parts := make([]string, len(p.Fields))
		for i, f := range p.Fields {
			parts[i] = f.Name + ": " + b.Types.String(f.Type)
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	case PatBinding:
		return p.Name + ": " + b.Types.String(p.Type)
	case PatCtor:
		if p.Ctor == CtorNone {
			return "None"
		}
		name := p.Name
		if name == "" {
			name = "_"
		}
		return p.Ctor.String() + "(" + name + ")"
	default:
		return "_"
	}
}

// Dump writes an indented outline of the file's items.
func (b *Builder) Dump(w io.Writer, file FileID) error {
	f := b.Files.Get(file)
	if f == nil {
		return fmt.Errorf("ast: unknown file %d", file)
	}
	for _, id := range f.Items {
		var line string
		switch b.Items.Get(id).Kind {
		case ItemImport:
			imp, _ := b.Items.Import(id)
			line = "import " + imp.PathString()
			if imp.Group {
				names := make([]string, len(imp.Names))
				for i, n := range imp.Names {
					names[i] = n.Name
					if n.Alias != "" {
						names[i] += " as " + n.Alias
					}
				}
				line += "::{" + strings.Join(names, ", ") + "}"
			}
			if imp.Alias != "" {
				line += " as " + imp.Alias
			}
		case ItemStruct:
			st, _ := b.Items.Struct(id)
			line = visPrefix(st.Visibility) + "struct " + st.Name
			for _, fld := range st.Fields {
				line += "\n  " + fld.Name + ": " + b.Types.String(fld.Type)
				if fld.Accessor != AccessorNone {
					line += " " + fld.Accessor.String()
				}
			}
		case ItemFn:
			fn, _ := b.Items.Fn(id)
			params := make([]string, len(fn.Params))
			for i, p := range fn.Params {
				params[i] = p.Name + ": " + b.Types.String(p.Type)
			}
			line = visPrefix(fn.Visibility) + "fn " + fn.Name + "(" + strings.Join(params, ", ") + ") -> " +
				b.Types.String(fn.Result) + " " + b.FormatExpr(fn.Body)
			if fn.Generated {
				line = "// generated\n" + line
			}
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func visPrefix(v Visibility) string {
	if v == VisPublic {
		return "pub "
	}
	return ""
}
