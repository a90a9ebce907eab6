package render

// LegacySampleBlock is the placeholder section shipped in early announcement
// templates, which predate the start and end markers. It is matched
// byte-for-byte, including its indentation and unbalanced span.
const LegacySampleBlock = `        <section class="content-section box-sizing-border">
          <p class="no-margin box-sizing-border">
            <span class="section-title box-sizing-border"><strong class="box-sizing-border"> {event} </strong></span>
          </p>
          <p class="no-margin box-sizing-border">
            报告人：{speaker_name} {speaker_title}
          </p>
          <p class="no-margin box-sizing-border">
            时间:<span class="highlight-text box-sizing-border"> {time_begin} </span>
          </p>
          <p class="no-margin box-sizing-border">
            地点: {position} </span>
        </p>
      </section>
      <!-- Divider -->
      <section class="divider box-sizing-border">
        <section class="dotted-line box-sizing-border">
          <svg viewbox="0 0 1 1" style="float:left;line-height:0;width:0;vertical-align:top;box-sizing:border-box;" xml:space="default"></svg>
        </section>
      </section>
      <!-- End of the first seminar -->`
