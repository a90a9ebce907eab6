package testutil

import "strings"

// crlf converts a fixture written with bare newlines into wire format.
func crlf(s string) string {
	return strings.ReplaceAll(s, "\n", "\r\n")
}

// MixedAlternativeMessage is a multipart/mixed message whose first part is
// a multipart/alternative with text/plain before text/html, followed by a
// PDF attachment. Its subject is 学术报告通知, RFC 2047 encoded.
var MixedAlternativeMessage = crlf(`From: "Seminar Office" <Office@Mails.Tsinghua.edu.cn>
To: someone@mails.tsinghua.edu.cn
Subject: =?UTF-8?B?5a2m5pyv5oql5ZGK6YCa55+l?=
Date: Mon, 02 Jan 2023 09:00:00 +0800
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="outer"

--outer
Content-Type: multipart/alternative; boundary="inner"

--inner
Content-Type: text/plain; charset=utf-8

Plain body
--inner
Content-Type: text/html; charset=utf-8

<p>HTML body</p>
--inner--

--outer
Content-Type: application/pdf
Content-Disposition: attachment; filename="slides.pdf"
Content-Transfer-Encoding: base64

JVBERi0xLjQK
--outer--
`)

// GBKMessage is a single-part message with a GBK encoded body reading
// 讲座通知：量子计算前沿.
var GBKMessage = crlf(`From: lecture@mail.tsinghua.edu.cn
Subject: =?GBK?B?vbLX+Q==?=
Date: Mon, 02 Jan 2023 10:00:00 +0800
MIME-Version: 1.0
Content-Type: text/plain; charset=gbk
Content-Transfer-Encoding: base64

vbLX+c2o1qqjusG/19O8xsvjx7DR2A==
`)

// ExternalMessage is a plain message from a sender outside the allow-list.
var ExternalMessage = crlf(`From: Someone <someone@example.com>
Subject: Offer
Date: Mon, 02 Jan 2023 11:00:00 +0800
MIME-Version: 1.0
Content-Type: text/plain; charset=utf-8

Not an invitation.
`)

// AttachmentOnlyMessage has no textual part at all.
var AttachmentOnlyMessage = crlf(`From: files@mails.tsinghua.edu.cn
Subject: Slides
Date: Mon, 02 Jan 2023 12:00:00 +0800
MIME-Version: 1.0
Content-Type: multipart/mixed; boundary="b"

--b
Content-Type: application/octet-stream
Content-Disposition: attachment; filename="a.bin"
Content-Transfer-Encoding: base64

AAEC
--b--
`)
